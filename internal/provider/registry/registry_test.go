package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/artboardhq/artboard/internal/config"
	"github.com/artboardhq/artboard/internal/domain"
)

type fakeProvider struct{ name string }

func (f *fakeProvider) Name() string { return f.name }
func (f *fakeProvider) Generate(ctx context.Context, call *domain.GenerationCall) (domain.ToolOutput, error) {
	return domain.PlainText("ok"), nil
}

func register(t *testing.T, f Factory) {
	t.Helper()
	ClearFactories()
	t.Cleanup(ClearFactories)
	RegisterFactory(f)
}

func TestRegisterAndLookup(t *testing.T) {
	register(t, Factory{
		Type: "stub",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return &fakeProvider{name: "stub"}, nil
		},
	})

	if !IsRegistered("stub") {
		t.Error("stub not registered")
	}
	if IsRegistered("other") {
		t.Error("unregistered type reported as registered")
	}
	if got := len(ListFactories()); got != 1 {
		t.Errorf("factories = %d, want 1", got)
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	register(t, Factory{
		Type:   "dup",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) { return nil, nil },
	})

	defer func() {
		if recover() == nil {
			t.Error("duplicate registration must panic")
		}
	}()
	RegisterFactory(Factory{
		Type:   "dup",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) { return nil, nil },
	})
}

func TestCreateFromConfigRequiresCredential(t *testing.T) {
	register(t, Factory{
		Type: "stub",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return &fakeProvider{name: "stub"}, nil
		},
	})

	cfg := &config.Config{Providers: map[string]config.ProviderConfig{
		"stub": {APIKey: "changeme"},
	}}
	if _, err := CreateFromConfig("stub", cfg); !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}

	cfg.Providers["stub"] = config.ProviderConfig{APIKey: "real-key"}
	p, err := CreateFromConfig("stub", cfg)
	if err != nil {
		t.Fatalf("CreateFromConfig: %v", err)
	}
	if p.Name() != "stub" {
		t.Errorf("provider name = %q", p.Name())
	}
}

func TestCreateFromConfigSharedCredentialKey(t *testing.T) {
	register(t, Factory{
		Type:      "video-surface",
		ConfigKey: "vendor",
		Create: func(cfg config.ProviderConfig) (domain.Provider, error) {
			return &fakeProvider{name: "video-surface"}, nil
		},
	})

	cfg := &config.Config{Providers: map[string]config.ProviderConfig{
		"vendor": {APIKey: "real-key"},
	}}
	if _, err := CreateFromConfig("video-surface", cfg); err != nil {
		t.Fatalf("shared credential lookup failed: %v", err)
	}
}

func TestCreateFromConfigUnknownType(t *testing.T) {
	ClearFactories()
	t.Cleanup(ClearFactories)

	cfg := &config.Config{Providers: map[string]config.ProviderConfig{}}
	if _, err := CreateFromConfig("ghost", cfg); err == nil {
		t.Error("unknown type must error")
	}
}
