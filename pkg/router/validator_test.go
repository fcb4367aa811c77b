package router

import (
	"context"
	"errors"
	"testing"
)

func TestValidatorAcceptsValidTree(t *testing.T) {
	v := NewValidator(tabsConfigs(), nil)
	if err := v.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidatorFindsProblems(t *testing.T) {
	tests := []struct {
		name    string
		configs []*RouteConfig
		want    ValidationErrorType
	}{
		{
			name: "duplicate sibling name",
			configs: []*RouteConfig{
				{Path: "/a", Component: "a", Name: "X"},
				{Path: "/b", Component: "b", Name: "X"},
			},
			want: ErrorDuplicateName,
		},
		{
			name:    "duplicate param",
			configs: []*RouteConfig{{Path: "/:id/:id", Component: "a"}},
			want:    ErrorInvalidPattern,
		},
		{
			name:    "unknown param type",
			configs: []*RouteConfig{{Path: "/:id:float", Component: "a"}},
			want:    ErrorInvalidPattern,
		},
		{
			name:    "neither component nor redirect",
			configs: []*RouteConfig{{Path: "/a"}},
			want:    ErrorAmbiguousTarget,
		},
		{
			name:    "both component and redirect",
			configs: []*RouteConfig{{Path: "/a", Component: "a", RedirectTo: "/b"}},
			want:    ErrorAmbiguousTarget,
		},
		{
			name: "redirect with children",
			configs: []*RouteConfig{{
				Path:       "/a",
				RedirectTo: "/b",
				Children:   []*RouteConfig{{Path: "/c", Component: "c"}},
			}},
			want: ErrorRedirectChildren,
		},
		{
			name:    "nil config",
			configs: []*RouteConfig{nil},
			want:    ErrorNilConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.configs, nil)
			err := v.Validate()
			if !errors.Is(err, ErrConfigConflict) {
				t.Fatalf("Validate() error = %v, want ErrConfigConflict", err)
			}
			found := false
			for _, e := range v.Errors() {
				if e.Type == tt.want {
					found = true
				}
			}
			if !found {
				t.Errorf("Errors() = %v, want a %s", v.Errors(), tt.want)
			}
		})
	}
}

func TestValidatorAllowsSameNameInDifferentSiblingSets(t *testing.T) {
	configs := []*RouteConfig{
		{Path: "/a", Component: "a", Name: "Index", Children: []*RouteConfig{
			{Path: "/", Component: "ai", Name: "Index"},
		}},
	}
	if err := NewValidator(configs, nil).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidatorReportsFullPath(t *testing.T) {
	configs := []*RouteConfig{
		{Path: "/users/:id", Component: "user", Children: []*RouteConfig{
			{Path: "/posts"},
		}},
	}
	v := NewValidator(configs, nil)
	_ = v.Validate()

	if len(v.Errors()) != 1 {
		t.Fatalf("Errors() = %v, want one error", v.Errors())
	}
	if got := v.Errors()[0].Path; got != "/users/:id/posts" {
		t.Errorf("Path = %q, want /users/:id/posts", got)
	}
}

func TestGuardEvaluator(t *testing.T) {
	g, err := NewGuardEvaluator()
	if err != nil {
		t.Fatalf("NewGuardEvaluator() error = %v", err)
	}

	allowed, err := g.Allow(context.Background(), `params.tab in ["profile", "settings"]`, Params{"tab": "profile"})
	if err != nil || !allowed {
		t.Errorf("Allow() = %v, %v; want true", allowed, err)
	}
	allowed, err = g.Allow(context.Background(), `params.tab in ["profile", "settings"]`, Params{"tab": "admin"})
	if err != nil || allowed {
		t.Errorf("Allow() = %v, %v; want false", allowed, err)
	}

	if err := g.Validate(`params.tab`); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("non-bool guard error = %v, want ErrInvalidGuard", err)
	}
	if err := g.Validate(`params.`); !errors.Is(err, ErrInvalidGuard) {
		t.Errorf("syntax error = %v, want ErrInvalidGuard", err)
	}
}

func TestValidateParam(t *testing.T) {
	tests := []struct {
		value, typ string
		ok         bool
	}{
		{"42", "int", true},
		{"-1", "int", true},
		{"x", "int", false},
		{"-1", "uint", false},
		{"550e8400-e29b-41d4-a716-446655440000", "uuid", true},
		{"not-a-uuid", "uuid", false},
		{"anything", "string", true},
		{"", "string", false},
	}
	for _, tt := range tests {
		err := ValidateParam(tt.value, tt.typ)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateParam(%q, %q) error = %v, want ok=%v", tt.value, tt.typ, err, tt.ok)
		}
	}
}
