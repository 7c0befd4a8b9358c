package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func stubTool(name string, required ...string) *Tool {
	return &Tool{
		Name:        name,
		Description: "stub",
		Schema: Schema{
			Required:   required,
			Properties: map[string]Property{},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			return map[string]any{"ok": true}, nil
		},
	}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	if err := reg.Register(stubTool("alpha")); err != nil {
		t.Fatalf("register: %v", err)
	}

	if reg.Get("alpha") == nil {
		t.Error("registered tool not found")
	}
	if reg.Get("missing") != nil {
		t.Error("unregistered tool should be nil")
	}
	if reg.Count() != 1 {
		t.Errorf("Count = %d, want 1", reg.Count())
	}
}

func TestRegistry_DuplicateRejected(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	reg.MustRegister(stubTool("alpha"))

	err := reg.Register(stubTool("alpha"))
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Errorf("expected ErrToolAlreadyRegistered, got %v", err)
	}
}

func TestRegistry_InvalidTool(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	if err := reg.Register(&Tool{Name: ""}); !errors.Is(err, ErrToolNameEmpty) {
		t.Errorf("expected ErrToolNameEmpty, got %v", err)
	}
	if err := reg.Register(&Tool{Name: "x"}); !errors.Is(err, ErrToolExecuteNil) {
		t.Errorf("expected ErrToolExecuteNil, got %v", err)
	}
}

func TestRegistry_Execute_UnknownTool(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	_, err := reg.Execute(context.Background(), "missing", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestRegistry_Execute_MissingRequiredArg(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	reg.MustRegister(stubTool("alpha", "path"))

	_, err := reg.Execute(context.Background(), "alpha", map[string]any{})
	if !IsValidation(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestRegistry_Descriptors_Sorted(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	reg.MustRegister(stubTool("zeta"))
	reg.MustRegister(stubTool("alpha"))

	descs := reg.Descriptors()
	if len(descs) != 2 || descs[0].Name != "alpha" || descs[1].Name != "zeta" {
		t.Errorf("descriptors not sorted: %+v", descs)
	}
	if descs[0].InputSchema.Type != "object" {
		t.Errorf("InputSchema.Type should default to object, got %q", descs[0].InputSchema.Type)
	}
}

func TestDescriptor_EnumAndNestedProperties(t *testing.T) {
	t.Parallel()

	tool := stubTool("search")
	tool.Schema.Properties = map[string]Property{
		"state": {Type: "string", Enum: []string{"all", "running", "terminated"}},
		"sort": {
			Type: "object",
			Properties: map[string]Property{
				"direction": {Type: "string", Enum: []string{"ascending", "descending"}},
			},
		},
	}

	raw, err := json.Marshal(tool.Descriptor())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(raw)

	for _, want := range []string{
		`"enum":["all","running","terminated"]`,
		`"direction":{"type":"string"`,
		`"enum":["ascending","descending"]`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("descriptor JSON missing %s:\n%s", want, got)
		}
	}
}

func TestValidationErrorFormatting(t *testing.T) {
	t.Parallel()

	positional := &ValidationError{Field: "cell_index", Index: 7, Detail: "out of bounds (valid range 0-4)"}
	if positional.Error() != "invalid cell_index at index 7: out of bounds (valid range 0-4)" {
		t.Errorf("unexpected message: %s", positional.Error())
	}

	plain := NewValidationError("updates", "provide either cell_index or updates, not both")
	if plain.Index != -1 {
		t.Error("non-positional error should have Index -1")
	}
	if !IsValidation(plain) {
		t.Error("IsValidation should match")
	}
}
