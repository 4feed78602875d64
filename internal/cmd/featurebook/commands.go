package featurebook

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/featurebook/internal/platform/i18n/catalog"
	"github.com/louisbranch/featurebook/internal/platform/prompt"
	"github.com/louisbranch/featurebook/internal/services/item/app"
	"github.com/louisbranch/featurebook/internal/services/item/domain/actor"
	"github.com/louisbranch/featurebook/internal/services/item/domain/classfeature"
	"github.com/microcosm-cc/bluemonday"
)

type command func(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error

var commands = map[string]command{
	"types":           runTypes,
	"create":          runCreate,
	"list":            runList,
	"show":            runShow,
	"set-type":        runSetType,
	"roll":            runRoll,
	"regenerate-fuid": runRegenerateFUID,
}

type session struct {
	cfg Config
	in  io.Reader
	out io.Writer
}

func (s *session) open(confirmer classfeature.Confirmer) (*app.Runtime, error) {
	if confirmer == nil {
		confirmer = prompt.Fixed(false)
	}
	return app.Open(app.RuntimeConfig{
		DBPath:    s.cfg.DBPath,
		Locale:    s.cfg.Locale,
		Settings:  classfeature.Settings{CollapseDescriptions: s.cfg.CollapseDescriptions},
		Confirmer: confirmer,
		Seed:      s.cfg.Seed,
	})
}

func (s *session) table() *tabwriter.Writer {
	return tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
}

func itemID(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		return "", fmt.Errorf("%s requires exactly one item id: %w", fs.Name(), ErrUsage)
	}
	return strings.TrimSpace(fs.Arg(0)), nil
}

func runTypes(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	rt, err := s.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	types, err := rt.Service.Types(ctx)
	if err != nil {
		return err
	}
	w := s.table()
	for _, info := range types {
		marker := ""
		if info.Default {
			marker = "default"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Key, marker, info.Capabilities)
	}
	return w.Flush()
}

func runCreate(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	featureType := fs.String("type", "", "Feature type (defaults to the first registered type)")
	summary := fs.String("summary", "", "Short summary")
	source := fs.String("source", "", "Source reference")
	ownerID := fs.String("owner-id", "", "Owning actor id")
	ownerName := fs.String("owner-name", "", "Owning actor name")
	data := fs.String("data", "", "Payload JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}
	name := strings.TrimSpace(strings.Join(fs.Args(), " "))

	input := app.CreateInput{
		Name:        name,
		FeatureType: *featureType,
		Summary:     *summary,
		Source:      *source,
	}
	if *ownerID != "" || *ownerName != "" {
		input.Owner = &actor.Actor{ID: *ownerID, Name: *ownerName}
	}
	if *data != "" {
		if !json.Valid([]byte(*data)) {
			return fmt.Errorf("-data must be valid JSON: %w", ErrUsage)
		}
		input.Data = json.RawMessage(*data)
	}

	rt, err := s.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	item, err := rt.Service.Create(ctx, input)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, item.ID)
	return nil
}

func runList(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	rt, err := s.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	items, err := rt.Service.List(ctx)
	if err != nil {
		return err
	}
	w := s.table()
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.ID, item.FeatureType, item.FUID, item.Name)
	}
	return w.Flush()
}

func runShow(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := itemID(fs)
	if err != nil {
		return err
	}
	rt, err := s.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	item, sections, err := rt.Service.Describe(ctx, id)
	if err != nil {
		return err
	}
	w := s.table()
	fmt.Fprintf(w, "id\t%s\n", item.ID)
	fmt.Fprintf(w, "name\t%s\n", item.Name)
	fmt.Fprintf(w, "owner\t%s\n", item.Owner.DisplayName("-"))
	fmt.Fprintf(w, "type\t%s\n", item.FeatureType)
	fmt.Fprintf(w, "fuid\t%s\n", item.FUID)
	fmt.Fprintf(w, "source\t%s\n", item.Source)
	fmt.Fprintf(w, "favored\t%t\n", item.IsFavored)
	fmt.Fprintf(w, "transfer effects\t%t\n", item.TransferEffects())
	fmt.Fprintf(w, "capabilities\t%s\n", item.Capabilities())
	fmt.Fprintf(w, "choices\t%s\n", strings.Join(item.Choices(), ", "))
	if err := w.Flush(); err != nil {
		return err
	}
	strict := bluemonday.StrictPolicy()
	for _, section := range sections {
		if section.Data.Summary != "" {
			fmt.Fprintf(s.out, "\n%s\n", section.Data.Summary)
		}
		if text := prompt.PlainText(strict, section.Data.Description); text != "" {
			fmt.Fprintf(s.out, "\n%s\n", text)
		}
	}
	return nil
}

func runSetType(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("set-type requires an item id and a feature type: %w", ErrUsage)
	}
	rt, err := s.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	item, err := rt.Service.SetFeatureType(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s\t%s\n", item.ID, item.FeatureType)
	return nil
}

func runRoll(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	shift := fs.Bool("shift", false, "Use the secondary roll action")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := itemID(fs)
	if err != nil {
		return err
	}
	rt, err := s.open(nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.Service.Roll(ctx, id, classfeature.Modifiers{Shift: *shift}); err != nil {
		return err
	}
	messages, err := rt.Store.ListMessages(ctx, 1)
	if err != nil {
		return err
	}
	strict := bluemonday.StrictPolicy()
	for _, msg := range messages {
		fmt.Fprintf(s.out, "%s\n%s\n", msg.SpeakerName, prompt.PlainText(strict, msg.Content))
	}
	return nil
}

func runRegenerateFUID(ctx context.Context, s *session, fs *flag.FlagSet, args []string) error {
	yes := fs.Bool("yes", false, "Confirm without prompting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := itemID(fs)
	if err != nil {
		return err
	}

	printer := catalog.Default().Printer(s.cfg.Locale)
	var confirmer classfeature.Confirmer = prompt.NewTerminal(s.in, s.out,
		printer.Sprintf("FU.Confirm.Yes"), printer.Sprintf("FU.Confirm.No"))
	if *yes {
		confirmer = prompt.Fixed(true)
	}
	rt, err := s.open(confirmer)
	if err != nil {
		return err
	}
	defer rt.Close()

	fuid, changed, err := rt.Service.RegenerateFUID(ctx, id)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(s.out, printer.Sprintf("FU.FUID.Unchanged"))
		return nil
	}
	fmt.Fprintln(s.out, printer.Sprintf("FU.FUID.Regenerated", fuid))
	return nil
}
