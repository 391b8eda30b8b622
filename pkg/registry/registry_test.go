package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/stategraph/pkg/registry"
	"github.com/aretw0/stategraph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(name string) registry.Tool {
	return registry.Tool{
		Name:   name,
		Schema: schema.Schema{{Name: "msg", Type: schema.String(), Required: true}},
		Fn: func(ctx context.Context, args map[string]any) (*registry.Result, error) {
			return &registry.Result{Text: name + ":" + args["msg"].(string)}, nil
		},
	}
}

func TestRegistry_Execute(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(echo("a"))

	res, err := r.Execute(context.Background(), "a", map[string]any{"msg": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "a:hi", res.Text)

	_, err = r.Execute(context.Background(), "missing", nil)
	assert.ErrorIs(t, err, registry.ErrToolNotFound)

	_, err = r.Execute(context.Background(), "a", nil)
	assert.ErrorContains(t, err, "invalid arguments")
	assert.Len(t, schema.ValidationErrors(err), 1)
}

func TestRegistry_OrderAndOverwrite(t *testing.T) {
	r := registry.NewRegistry()
	r.Register(echo("b"))
	r.Register(echo("a"))
	r.Register(registry.Tool{Name: "b", Description: "replaced"})

	var names []string
	for _, tool := range r.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"b", "a"}, names)

	tool, ok := r.Get("b")
	require.True(t, ok)
	assert.Equal(t, "replaced", tool.Description)
}
