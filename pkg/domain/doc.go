/*
Package domain contains the core data model shared by the navigation and
refinement engines.

It defines the entities of a state-action graph as produced by an application
scanner and is kept free of I/O and persistence concerns, following Hexagonal
Architecture principles.

# Key Entities

  - State: one observable configuration of the target application.
  - Action: a user-triggerable operation, labelled with human-readable names.
  - Transition: a directed edge (from state, via action, to state).
  - Document: the serialized shape of a graph, as loaded and saved by adapters.
  - Graph: the in-memory aggregate with insertion-ordered state and action
    mappings and an ordered transition sequence.
*/
package domain
