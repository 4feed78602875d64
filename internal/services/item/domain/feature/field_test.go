package feature

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"
)

func TestFieldResolveBlankUsesDefaultKey(t *testing.T) {
	t.Parallel()

	field := NewField(newScenarioRegistry(t))
	if field.State() != StateUnresolved {
		t.Fatalf("State() = %s, want unresolved", field.State())
	}

	payload, err := field.Resolve(nil, "", stubParent{id: "item-1"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := payload.(*attackPayload); !ok {
		t.Fatalf("payload type = %T, want *attackPayload", payload)
	}
	if field.Key() != "attack" || field.State() != StateResolved {
		t.Fatalf("field = %s(%q), want resolved(attack)", field.State(), field.Key())
	}
}

func TestFieldResolveDecodesDataAndBindsParent(t *testing.T) {
	t.Parallel()

	field := NewField(newScenarioRegistry(t))
	raw := json.RawMessage(`{"name":"Twin Shot","accuracy":2}`)

	payload, err := field.Resolve(raw, "attack", stubParent{id: "item-7"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	attack := payload.(*attackPayload)
	if attack.Label != "Twin Shot" || attack.Accuracy != 2 {
		t.Fatalf("decoded payload = %+v", attack)
	}
	if attack.parent == nil || attack.parent.ItemID() != "item-7" {
		t.Fatalf("expected parent item-7, got %v", attack.parent)
	}
}

func TestFieldResolveRejectsMalformedData(t *testing.T) {
	t.Parallel()

	field := NewField(newScenarioRegistry(t))
	if _, err := field.Resolve(json.RawMessage(`{"accuracy":"high"}`), "attack", nil); err == nil {
		t.Fatal("expected decode error")
	}
	if field.State() != StateUnresolved {
		t.Fatal("expected failed resolution to leave field unresolved")
	}
}

func TestFieldScenarioAttackPassiveUnknown(t *testing.T) {
	t.Parallel()

	field := NewField(newScenarioRegistry(t))
	parent := stubParent{id: "item-1"}

	first, err := field.Resolve(nil, "", parent)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := first.(*attackPayload); !ok {
		t.Fatalf("default payload = %T, want *attackPayload", first)
	}

	second, err := field.Reresolve("passive", parent)
	if err != nil {
		t.Fatalf("reresolve passive: %v", err)
	}
	if _, ok := second.(*passivePayload); !ok {
		t.Fatalf("passive payload = %T, want *passivePayload", second)
	}

	if _, err := field.Reresolve("unknown", parent); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	if field.Key() != "passive" {
		t.Fatalf("failed reresolve changed key to %q", field.Key())
	}
}

func TestFieldReresolveYieldsFreshInstance(t *testing.T) {
	t.Parallel()

	field := NewField(newScenarioRegistry(t))
	raw := json.RawMessage(`{"name":"Twin Shot","accuracy":2}`)
	first, err := field.Resolve(raw, "attack", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	again, err := field.Reresolve("attack", nil)
	if err != nil {
		t.Fatalf("reresolve: %v", err)
	}
	if again == first {
		t.Fatal("expected a new payload instance")
	}
	if got := again.(*attackPayload); got.Label != "" || got.Accuracy != 0 {
		t.Fatalf("expected no carried-over data, got %+v", got)
	}
}

func TestFieldResolveSealsRegistry(t *testing.T) {
	t.Parallel()

	registry := newScenarioRegistry(t)
	if _, err := NewField(registry).Resolve(nil, "passive", nil); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !registry.Sealed() {
		t.Fatal("expected first resolution to seal registry")
	}
}

func TestFieldResolveEmptyRegistry(t *testing.T) {
	t.Parallel()

	if _, err := NewField(NewRegistry()).Resolve(nil, "", nil); !errors.Is(err, ErrEmptyRegistry) {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
}

func TestFieldChoicesTrackRegistry(t *testing.T) {
	t.Parallel()

	registry := newScenarioRegistry(t)
	field := NewField(registry)
	registry.MustRegister("spell", JSONFactory[passivePayload]())

	if got, want := field.Choices(), []string{"attack", "passive", "spell"}; !slices.Equal(got, want) {
		t.Fatalf("Choices() = %v, want %v", got, want)
	}
	initial, err := field.Initial()
	if err != nil || initial != "attack" {
		t.Fatalf("Initial() = %q, %v", initial, err)
	}
}

func TestFieldValidate(t *testing.T) {
	t.Parallel()

	field := NewField(newScenarioRegistry(t))
	tests := []struct {
		value   string
		wantErr bool
	}{
		{value: "", wantErr: false},
		{value: "attack", wantErr: false},
		{value: "passive", wantErr: false},
		{value: "unknown", wantErr: true},
	}
	for _, tt := range tests {
		err := field.Validate(tt.value)
		if tt.wantErr && !errors.Is(err, ErrUnknownType) {
			t.Errorf("Validate(%q) = %v, want ErrUnknownType", tt.value, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tt.value, err)
		}
	}
}

func TestJSONFactoryRunsSetupHooks(t *testing.T) {
	t.Parallel()

	factory := JSONFactory(func(p *attackPayload) { p.Accuracy += 10 })
	payload, err := factory(json.RawMessage(`{"accuracy":1}`), nil)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if got := payload.(*attackPayload).Accuracy; got != 11 {
		t.Fatalf("accuracy = %d, want 11", got)
	}
}
