package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/trip/internal/api"
	"github.com/pbaille/trip/internal/assistant"
	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/export"
	"github.com/pbaille/trip/internal/fetcher"
	"github.com/pbaille/trip/internal/footprints"
	"github.com/pbaille/trip/internal/itinerary"
	"github.com/pbaille/trip/internal/syncer"
	"github.com/pbaille/trip/internal/ui"
)

var (
	configPath string
	dbPath     string
	remoteURL  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "trip",
		Short:         "Two-day Tainan itinerary planner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/trip/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "trip API server to use instead of the local database")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(moveCmd())
	rootCmd.AddCommand(visitCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(reorderCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(footprintsCmd())
	rootCmd.AddCommand(recommendCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(tuiCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// withApp opens the itinerary for a one-shot command and closes it after
// fn, flushing any pending writes.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	a, err := openApp(ctx, appOptions{logToFile: true})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := a.load(ctx); err != nil {
		return err
	}
	return fn(ctx, a)
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer log.Sync()

			s, err := getStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			if addr == "" {
				addr = cfg.APIBind
			}
			opts := api.Options{
				Addr:          addr,
				AuthSecret:    cfg.AuthSecret,
				RatePerMinute: cfg.AssistantRate,
				Logger:        log,
			}

			a := &app{cfg: cfg, log: log}
			if ai, err := assistant.New(cfg.AnthropicKey, cfg.AnthropicModel); err == nil {
				opts.Geocoder = assistant.NewCachedGeocoder(ai, a.geocodeCache(cmd.Context()))
				opts.Recommender = ai
			} else {
				log.Warn("assistant endpoints disabled", zap.Error(err))
			}
			defer func() {
				for _, c := range a.closers {
					c()
				}
			}()

			return api.New(s, opts).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (default from config)")
	return cmd
}

func listCmd() *cobra.Command {
	var dayFlag string
	var tags []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List spots by day",
		RunE: func(cmd *cobra.Command, args []string) error {
			days := domain.Days()
			if dayFlag != "" {
				day, err := domain.ParseDay(dayFlag)
				if err != nil {
					return err
				}
				days = []domain.Day{day}
			}
			filter := make(map[string]bool, len(tags))
			for _, t := range domain.NormalizeTags(tags) {
				filter[t] = true
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				all := a.coord.Spots().Spots()
				now := time.Now()
				for i, day := range days {
					if i > 0 {
						fmt.Println()
					}
					printDay(all, day, filter, now)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dayFlag, "day", "d", "", "only this day (Day 1, Day 2, Other)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "only spots carrying one of these tags")
	return cmd
}

func printDay(all []domain.Spot, day domain.Day, filter map[string]bool, now time.Time) {
	list := itinerary.DayList(all, day, nil)
	if day == domain.Other {
		fmt.Printf("%s (%d)\n", day, len(list))
	} else {
		fmt.Printf("%s (%d%% visited)\n", day, itinerary.Progress(all, day))
	}

	shown := 0
	for i, s := range list {
		if len(filter) > 0 && !s.HasAnyTag(filter) {
			continue
		}
		shown++
		check := "[ ]"
		if s.IsVisited {
			check = "[x]"
		}
		line := fmt.Sprintf("  %s  %s %d. %s", shortID(s.ID), check, i+1, s.Name)
		if s.OpeningHours != "" {
			line += "  (" + itinerary.HoursStatus(s.OpeningHours, now).Label() + ")"
		}
		if len(s.Tags) > 0 {
			line += "  #" + strings.Join(s.Tags, " #")
		}
		fmt.Println(line)
	}
	if shown == 0 {
		fmt.Println("  (nothing planned)")
	}
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show spot details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				printSpot(s, time.Now())
				return nil
			})
		},
	}
}

func printSpot(s domain.Spot, now time.Time) {
	fmt.Printf("ID:       %s\n", s.ID)
	fmt.Printf("Name:     %s\n", s.Name)
	fmt.Printf("Day:      %s (#%d)\n", s.Day, s.Order+1)
	fmt.Printf("Visited:  %t\n", s.IsVisited)
	if s.OpeningHours != "" {
		fmt.Printf("Hours:    %s (%s)\n", s.OpeningHours, itinerary.HoursStatus(s.OpeningHours, now).Label())
	}
	if s.Address != "" {
		fmt.Printf("Address:  %s\n", s.Address)
	}
	fmt.Printf("Location: %.5f, %.5f\n", s.Lat, s.Lng)
	if len(s.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(s.Tags, ", "))
	}
	if s.Description != "" {
		fmt.Printf("\n%s\n", s.Description)
	}
	if s.Notes != "" {
		fmt.Printf("\nNotes:\n%s\n", s.Notes)
	}
	if len(s.Images) > 0 {
		fmt.Printf("\nImages:\n")
		for _, img := range s.Images {
			fmt.Printf("  - %s\n", img)
		}
	}
}

func addCmd() *cobra.Command {
	var (
		dayFlag     string
		address     string
		hours       string
		tags        []string
		notes       string
		description string
		images      []string
		fromURL     string
		noGeocode   bool
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a spot to the itinerary",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDay(dayFlag)
			if err != nil {
				return err
			}
			cleaned, err := itinerary.CleanHours(hours)
			if err != nil {
				return err
			}

			n := domain.NewSpot{
				Name:         strings.Join(args, " "),
				Description:  description,
				Notes:        notes,
				Images:       images,
				Day:          day,
				Tags:         tags,
				OpeningHours: cleaned,
				Address:      address,
			}

			if fromURL == "" && len(args) == 1 && fetcher.IsURL(args[0]) {
				fromURL, n.Name = args[0], ""
			}
			if fromURL != "" {
				fmt.Print("Fetching page... ")
				page, err := fetcher.Fetch(cmd.Context(), fromURL)
				if err != nil {
					fmt.Println("failed")
					return err
				}
				fmt.Println("done")
				applyPage(&n, page)
			}
			if err := n.Validate(); err != nil {
				return err
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				var spot domain.Spot
				var err error
				if noGeocode {
					n.Lat, n.Lng = domain.FallbackLocation.Lat, domain.FallbackLocation.Lng
					spot, err = a.coord.Add(ctx, n)
				} else {
					if a.geocoder != nil {
						fmt.Print("Locating... ")
					}
					spot, err = a.coord.AddWithLookup(ctx, n, a.geocoder)
					if a.geocoder != nil && err == nil {
						fmt.Println("done")
					}
				}
				if err != nil {
					return err
				}

				fmt.Printf("Added spot: %s\n", shortID(spot.ID))
				fmt.Printf("%s #%d: %s\n", spot.Day, spot.Order+1, spot.Name)
				if spot.Address != "" {
					fmt.Printf("Address: %s\n", spot.Address)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dayFlag, "day", "d", string(domain.Day1), "day to plan it on (Day 1, Day 2, Other)")
	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().StringVar(&hours, "hours", "", "opening hours (HH:MM - HH:MM or 24-hour)")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tags")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image URLs")
	cmd.Flags().StringVar(&fromURL, "from-url", "", "fill name, description and images from a web page")
	cmd.Flags().BoolVar(&noGeocode, "no-geocode", false, "skip the location lookup")
	return cmd
}

// applyPage fills the fields the user left empty from an imported page.
func applyPage(n *domain.NewSpot, page fetcher.Page) {
	if strings.TrimSpace(n.Name) == "" {
		n.Name = page.Title
	}
	if n.Description == "" {
		n.Description = page.Description
	}
	if len(n.Images) == 0 {
		n.Images = page.Images
	}
	if n.Notes == "" {
		n.Notes = page.URL
	}
}

func moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move [id] [day]",
		Short: "Move a spot to the end of another day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDay(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				if err := a.coord.MoveToDay(ctx, s.ID, day); err != nil {
					return err
				}
				fmt.Printf("Moved %s to %s\n", s.Name, day)
				return nil
			})
		},
	}
}

func visitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "visit [id]",
		Short: "Toggle whether a spot was visited",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				visited, err := a.coord.ToggleVisited(ctx, s.ID)
				if err != nil {
					return err
				}
				if visited {
					fmt.Printf("Visited %s\n", s.Name)
				} else {
					fmt.Printf("Marked %s as not visited\n", s.Name)
				}
				if s.Day != domain.Other {
					fmt.Printf("%s progress: %d%%\n", s.Day, itinerary.Progress(a.coord.Spots().Spots(), s.Day))
				}
				return nil
			})
		},
	}
}

func deleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a spot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				confirm := promptConfirm
				if yes {
					confirm = func(string) bool { return true }
				}
				err = a.coord.Delete(ctx, s.ID, confirm)
				if errors.Is(err, syncer.ErrNotConfirmed) {
					fmt.Println("Cancelled.")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %s\n", s.Name)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func promptConfirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func reorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder [day] [id...]",
		Short: "Set the visiting order of a day",
		Long:  "Set the visiting order of a day. Spots of the day that are not listed keep their order after the listed ones.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDay(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				ids := make([]string, 0, len(args)-1)
				for _, prefix := range args[1:] {
					s, err := a.resolve(prefix)
					if err != nil {
						return err
					}
					ids = append(ids, s.ID)
				}

				seq, err := a.coord.Reorder(day, ids)
				if err != nil {
					return err
				}
				for _, s := range seq {
					fmt.Printf("  %d. %s\n", s.Order+1, s.Name)
				}
				// The batched write goes out when the app closes.
				return nil
			})
		},
	}
}

func editCmd() *cobra.Command {
	var notes, address, hours string
	var tags []string

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit notes, address, tags or opening hours",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch domain.Patch
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("tags") {
				patch = patch.WithTags(tags)
			}
			if flags.Changed("hours") {
				cleaned, err := itinerary.CleanHours(hours)
				if err != nil {
					return err
				}
				patch.OpeningHours = &cleaned
			}
			editAddress := flags.Changed("address")
			if patch.Empty() && !editAddress {
				return fmt.Errorf("nothing to edit (use --notes, --address, --tags or --hours)")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				s, err := a.resolve(args[0])
				if err != nil {
					return err
				}
				if err := a.coord.Update(ctx, s.ID, patch); err != nil {
					return err
				}
				if editAddress {
					if err := a.coord.UpdateAddress(ctx, s.ID, strings.TrimSpace(address), a.geocoder); err != nil {
						return err
					}
				}

				updated, _ := a.coord.Spots().Get(s.ID)
				printSpot(updated, time.Now())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "replace the notes")
	cmd.Flags().StringVar(&address, "address", "", "new address (re-resolves the location)")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "replace the tags")
	cmd.Flags().StringVar(&hours, "hours", "", "opening hours (HH:MM - HH:MM or 24-hour, empty to clear)")
	return cmd
}

func footprintsCmd() *cobra.Command {
	var dayFlag string
	var showQR bool
	var width, height int

	cmd := &cobra.Command{
		Use:   "footprints",
		Short: "Show a day's progress, map and route",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDay(dayFlag)
			if err != nil {
				return err
			}
			if day == domain.Other {
				return fmt.Errorf("footprints cover %s and %s only", domain.Day1, domain.Day2)
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				all := a.coord.Spots().Spots()
				list := itinerary.DayList(all, day, nil)
				fmt.Printf("%s: %d%% visited\n\n", day, itinerary.Progress(all, day))
				if len(list) == 0 {
					fmt.Println("Nothing planned.")
					return nil
				}

				plot := footprints.Plot(list, width, height)
				fmt.Println(plot.String())
				fmt.Println()
				for _, mk := range plot.Markers {
					check := " "
					if mk.Visited {
						check = "x"
					}
					fmt.Printf("  %c [%s] %s\n", mk.Label, check, mk.Spot.Name)
				}

				link := itinerary.DirectionsURL(itinerary.VisitedPath(all, day))
				if link == "" {
					fmt.Println("\nVisit at least two spots to get a route.")
					return nil
				}
				fmt.Printf("\nRoute: %s\n", link)
				if showQR {
					qr, err := footprints.QR(link)
					if err != nil {
						return err
					}
					fmt.Println()
					fmt.Print(qr)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&dayFlag, "day", "d", string(domain.Day1), "Day 1 or Day 2")
	cmd.Flags().BoolVar(&showQR, "qr", false, "print the route as a QR code")
	cmd.Flags().IntVar(&width, "width", 48, "map width in characters")
	cmd.Flags().IntVar(&height, "height", 14, "map height in lines")
	return cmd
}

func recommendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommend [day]",
		Short: "Suggest nearby places for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDay(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.recommender == nil {
					return fmt.Errorf("recommendations need ANTHROPIC_API_KEY or a --remote server")
				}
				var names []string
				for _, s := range itinerary.DayList(a.coord.Spots().Spots(), day, nil) {
					names = append(names, s.Name)
				}

				fmt.Print("Thinking... ")
				text, err := a.recommender.Recommend(ctx, day, names)
				if err != nil {
					fmt.Println("failed")
					return err
				}
				fmt.Printf("done\n\n%s\n", strings.TrimSpace(text))
				return nil
			})
		},
	}
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the itinerary as a PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				if err := export.PDF(f, a.coord.Spots().Spots(), time.Now()); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", out, err)
				}
				fmt.Printf("Wrote %s\n", out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "trip.pdf", "output file")
	return cmd
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.AuthSecret == "" {
				return fmt.Errorf("no auth_secret configured")
			}
			tok, err := api.MintToken(cfg.AuthSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "trip-cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive itinerary",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			writes := ui.NewWriteEvents()
			a, err := openApp(cmd.Context(), appOptions{logToFile: true, onWrite: writes.Report})
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			return ui.Run(ui.Options{
				Context:     cmd.Context(),
				Coordinator: a.coord,
				Geocoder:    a.geocoder,
				Writes:      writes,
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
