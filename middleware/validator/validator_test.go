package validator

import (
	"context"
	stderrors "errors"
	"testing"

	apperrors "github.com/sweetpotato0/ai-desk/errors"
	"github.com/sweetpotato0/ai-desk/middleware"
	"github.com/sweetpotato0/ai-desk/tool"
)

func TestInputValidator(t *testing.T) {
	t.Run("passes valid input", func(t *testing.T) {
		validator := NewInputValidator(func(ctx *middleware.Context) error {
			return nil
		})

		nextCalled := false
		ctx := middleware.NewContext(context.Background(), nil)
		err := validator.Execute(ctx, func(c *middleware.Context) error {
			nextCalled = true
			return nil
		})

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if !nextCalled {
			t.Error("next was not called")
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		validator := NewInputValidator(func(ctx *middleware.Context) error {
			return stderrors.New("invalid")
		})

		nextCalled := false
		ctx := middleware.NewContext(context.Background(), nil)
		err := validator.Execute(ctx, func(c *middleware.Context) error {
			nextCalled = true
			return nil
		})

		if err == nil {
			t.Error("expected validation error")
		}
		if nextCalled {
			t.Error("next should not be called on invalid input")
		}
	})

	t.Run("handles nil validator", func(t *testing.T) {
		validator := NewInputValidator(nil)

		ctx := middleware.NewContext(context.Background(), nil)
		err := validator.Execute(ctx, func(c *middleware.Context) error { return nil })

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestSchemaValidator(t *testing.T) {
	t.Run("sets typed input", func(t *testing.T) {
		ctx := middleware.NewContext(context.Background(), []byte(`{"tool":"ideas","payload":{"topic":"Creative writing","count":2}}`))
		err := NewSchemaValidator().Execute(ctx, func(c *middleware.Context) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ctx.Tool != tool.Ideas {
			t.Errorf("Tool = %s", ctx.Tool)
		}
		in, ok := ctx.Input.(tool.IdeasInput)
		if !ok || in.Topic != "Creative writing" || in.Count != 2 {
			t.Errorf("Input = %#v", ctx.Input)
		}
	})

	tests := []struct {
		name     string
		body     string
		wantKind apperrors.Kind
		wantTool tool.Name
	}{
		{"invalid json", `invalid json`, apperrors.KindRuntime, ""},
		{"unknown tool", `{"tool":"invalid-tool","payload":{}}`, apperrors.KindValidationOrRuntime, ""},
		{"bad payload keeps tool", `{"tool":"write","payload":{}}`, apperrors.KindValidationOrRuntime, tool.Write},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			ctx := middleware.NewContext(context.Background(), []byte(tt.body))
			err := NewSchemaValidator().Execute(ctx, func(c *middleware.Context) error {
				nextCalled = true
				return nil
			})

			var classified *apperrors.Error
			if !stderrors.As(err, &classified) {
				t.Fatalf("expected classified error, got %v", err)
			}
			if classified.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", classified.Kind, tt.wantKind)
			}
			if nextCalled {
				t.Error("next should not run after a validation failure")
			}
			if ctx.Tool != tt.wantTool || ctx.Input != nil {
				t.Errorf("Tool = %q, Input = %v", ctx.Tool, ctx.Input)
			}
		})
	}
}
