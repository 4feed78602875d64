package app

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/louisbranch/featurebook/internal/platform/errors"
	"github.com/louisbranch/featurebook/internal/platform/prompt"
	"github.com/louisbranch/featurebook/internal/platform/random"
	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/louisbranch/featurebook/internal/services/item/domain/feature"
	"github.com/louisbranch/featurebook/internal/services/item/kinds"
	"github.com/louisbranch/featurebook/internal/services/item/storage"
)

func openRuntime(t *testing.T, confirm bool) *Runtime {
	t.Helper()
	runtime, err := Open(RuntimeConfig{
		DBPath:    filepath.Join(t.TempDir(), "featurebook.db"),
		Locale:    "en-US",
		Settings:  classfeature.Settings{CollapseDescriptions: true},
		Confirmer: prompt.Fixed(confirm),
		Seed:      random.Sequence(42),
	})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(runtime.Close)
	return runtime
}

func TestOpenRequiresConfirmer(t *testing.T) {
	t.Parallel()

	if _, err := Open(RuntimeConfig{DBPath: filepath.Join(t.TempDir(), "x.db")}); err == nil {
		t.Fatal("expected error for missing confirmer")
	}
}

func TestNewServiceValidatesDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewService(Deps{}); err == nil {
		t.Fatal("expected error for empty deps")
	}
}

func TestTypesListsRegistrationOrder(t *testing.T) {
	t.Parallel()

	types, err := openRuntime(t, false).Service.Types(context.Background())
	if err != nil {
		t.Fatalf("types: %v", err)
	}
	if len(types) != 2 || types[0].Key != kinds.KeyAttack || types[1].Key != kinds.KeyPassive {
		t.Fatalf("unexpected types: %+v", types)
	}
	if !types[0].Default || types[1].Default {
		t.Fatalf("expected attack to be the only default: %+v", types)
	}
	if !types[0].Capabilities.Has(feature.CapabilityRollable) {
		t.Fatalf("attack capabilities = %s", types[0].Capabilities)
	}
}

func TestCreateAndGetRoundTrip(t *testing.T) {
	t.Parallel()

	service := openRuntime(t, false).Service
	created, err := service.Create(context.Background(), CreateInput{
		Name:        "Cleave",
		FeatureType: kinds.KeyAttack,
		Summary:     "Hit hard",
		Source:      "Core",
		Owner:       &actor.Actor{ID: "a1", Name: "Rook"},
		Data:        json.RawMessage(`{"name":"Cleave","accuracy":2,"secondaryDie":10}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := service.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Cleave" || got.Summary != "Hit hard" || got.Source != "Core" || got.FeatureType != kinds.KeyAttack {
		t.Fatalf("unexpected item: %+v", got)
	}
	if got.Owner == nil || got.Owner.Name != "Rook" {
		t.Fatalf("owner = %+v, want Rook", got.Owner)
	}
	attack, ok := got.Data.(*kinds.Attack)
	if !ok {
		t.Fatalf("payload = %T, want *kinds.Attack", got.Data)
	}
	if attack.Accuracy != 2 || attack.PrimaryDie != 8 || attack.SecondaryDie != 10 {
		t.Fatalf("unexpected payload: %+v", attack)
	}
}

func TestCreateDefaultsAndValidation(t *testing.T) {
	t.Parallel()

	service := openRuntime(t, false).Service
	created, err := service.Create(context.Background(), CreateInput{Name: "Plain"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.FeatureType != kinds.KeyAttack {
		t.Fatalf("FeatureType = %q, want default %q", created.FeatureType, kinds.KeyAttack)
	}
	if _, err := service.Create(context.Background(), CreateInput{Name: "X", FeatureType: "spell"}); !errors.Is(err, feature.ErrUnknownType) {
		t.Fatalf("Create() error = %v, want %v", err, feature.ErrUnknownType)
	}
	if _, err := service.Create(context.Background(), CreateInput{Name: " "}); apperrors.CodeOf(err) != apperrors.CodeItemEmptyName {
		t.Fatalf("Create() error = %v, want %s", err, apperrors.CodeItemEmptyName)
	}
}

func TestGetMissingItem(t *testing.T) {
	t.Parallel()

	if _, err := openRuntime(t, false).Service.Get(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestGetIgnoresOtherItemTypes(t *testing.T) {
	t.Parallel()

	runtime := openRuntime(t, false)
	if err := runtime.Store.PutItem(context.Background(), storage.Item{ID: "w1", Type: "weapon", Name: "Sword"}); err != nil {
		t.Fatalf("put item: %v", err)
	}
	if _, err := runtime.Service.Get(context.Background(), "w1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get() error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListReturnsCreatedItems(t *testing.T) {
	t.Parallel()

	service := openRuntime(t, false).Service
	for _, name := range []string{"Cleave", "Tough"} {
		if _, err := service.Create(context.Background(), CreateInput{Name: name}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	items, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
}

func TestSetFeatureTypePersistsFreshPayload(t *testing.T) {
	t.Parallel()

	service := openRuntime(t, false).Service
	created, err := service.Create(context.Background(), CreateInput{
		Name: "Cleave",
		Data: json.RawMessage(`{"accuracy":3}`),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := service.SetFeatureType(context.Background(), created.ID, kinds.KeyPassive); err != nil {
		t.Fatalf("set passive: %v", err)
	}
	if _, err := service.SetFeatureType(context.Background(), created.ID, kinds.KeyAttack); err != nil {
		t.Fatalf("set attack: %v", err)
	}
	got, err := service.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if attack := got.Data.(*kinds.Attack); attack.Accuracy != 0 {
		t.Fatalf("accuracy = %d, want 0 after re-resolution", attack.Accuracy)
	}
	if _, err := service.SetFeatureType(context.Background(), created.ID, "spell"); !errors.Is(err, feature.ErrUnknownType) {
		t.Fatalf("SetFeatureType() error = %v, want %v", err, feature.ErrUnknownType)
	}
}

func TestRollPostsChatCards(t *testing.T) {
	t.Parallel()

	runtime := openRuntime(t, false)
	service := runtime.Service
	attack, err := service.Create(context.Background(), CreateInput{Name: "Cleave", FeatureType: kinds.KeyAttack})
	if err != nil {
		t.Fatalf("create attack: %v", err)
	}
	passive, err := service.Create(context.Background(), CreateInput{
		Name:        "Tough",
		FeatureType: kinds.KeyPassive,
		Summary:     "Hard to kill",
		Data:        json.RawMessage(`{"description":"Gain **5** HP."}`),
	})
	if err != nil {
		t.Fatalf("create passive: %v", err)
	}

	if _, err := service.Roll(context.Background(), attack.ID, classfeature.Modifiers{}); err != nil {
		t.Fatalf("roll attack: %v", err)
	}
	if _, err := service.Roll(context.Background(), passive.ID, classfeature.Modifiers{}); err != nil {
		t.Fatalf("roll passive: %v", err)
	}

	messages, err := runtime.Store.ListMessages(context.Background(), 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(messages))
	}
	if !strings.Contains(messages[0].Content, `data-check="accuracy"`) {
		t.Fatalf("first message = %q, want accuracy card", messages[0].Content)
	}
	second := messages[1].Content
	if !strings.Contains(second, `data-check="display"`) || !strings.Contains(second, "<strong>5</strong>") {
		t.Fatalf("second message = %q, want display card with enriched description", second)
	}
	if !strings.Contains(second, "chat-desc collapsed") {
		t.Fatalf("second message = %q, want collapsed description", second)
	}
}

func TestRegenerateFUID(t *testing.T) {
	t.Parallel()

	t.Run("declined", func(t *testing.T) {
		service := openRuntime(t, false).Service
		created, err := service.Create(context.Background(), CreateInput{Name: "Cleave", Data: json.RawMessage(`{"name":"Crushing Blow"}`)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		fuid, changed, err := service.RegenerateFUID(context.Background(), created.ID)
		if err != nil || changed || fuid != "" {
			t.Fatalf("RegenerateFUID() = %q, %v, %v", fuid, changed, err)
		}
		got, err := service.Get(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.FUID != "" {
			t.Fatalf("FUID = %q, want empty", got.FUID)
		}
	})
	t.Run("confirmed", func(t *testing.T) {
		service := openRuntime(t, true).Service
		created, err := service.Create(context.Background(), CreateInput{Name: "Cleave", Data: json.RawMessage(`{"name":"Crushing Blow"}`)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		fuid, changed, err := service.RegenerateFUID(context.Background(), created.ID)
		if err != nil || !changed || fuid != "crushing-blow" {
			t.Fatalf("RegenerateFUID() = %q, %v, %v", fuid, changed, err)
		}
		got, err := service.Get(context.Background(), created.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.FUID != "crushing-blow" {
			t.Fatalf("FUID = %q, want crushing-blow", got.FUID)
		}
		if attack := got.Data.(*kinds.Attack); attack.Label != "Crushing Blow" {
			t.Fatalf("payload name = %q, want it kept", attack.Label)
		}
	})
}

func TestDescribeRendersSections(t *testing.T) {
	t.Parallel()

	service := openRuntime(t, false).Service
	created, err := service.Create(context.Background(), CreateInput{Name: "Cleave", Summary: "Hit hard"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	item, sections, err := service.Describe(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if item.ID != created.ID || len(sections) != 1 || sections[0].Data.Summary != "Hit hard" {
		t.Fatalf("unexpected describe result: %+v %+v", item, sections)
	}

	bare, err := service.Create(context.Background(), CreateInput{Name: "Bare"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, sections, err := service.Describe(context.Background(), bare.ID); err != nil || len(sections) != 0 {
		t.Fatalf("Describe() sections = %d, err = %v, want none", len(sections), err)
	}
}
