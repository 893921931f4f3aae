package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edumarques81/stellar-signage/internal/domain/player"
	"github.com/edumarques81/stellar-signage/internal/domain/render"
	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
	"github.com/edumarques81/stellar-signage/internal/infra/store"
	"github.com/edumarques81/stellar-signage/internal/share"
	"github.com/edumarques81/stellar-signage/internal/version"
)

func (a *app) openStore() (store.Store, error) {
	st, err := store.Open(a.cfg.Store.Driver, a.cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

func (a *app) importCmd() *cobra.Command {
	var idFlag string

	cmd := &cobra.Command{
		Use:   "import [file.json]",
		Short: "Store a slideshow record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			rec, err := slideshow.DecodeRecord(data)
			if err != nil {
				return err
			}
			if idFlag != "" {
				rec.ID = idFlag
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.PutSlideshow(cmd.Context(), rec); err != nil {
				return err
			}
			cmd.Printf("Imported %s (%d slides)\n", rec.ID, len(rec.Images))
			return nil
		},
	}
	cmd.Flags().StringVar(&idFlag, "id", "", "Override the record id")
	return cmd
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [id]",
		Short: "Show how a stored slideshow will play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.GetSlideshow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			show := slideshow.Parse(rec)

			cmd.Printf("%s (%s) active=%v slides=%d\n", show.Name, show.ID, show.IsActive, show.Len())
			if show.Settings.HasMusic() {
				cmd.Printf("music: %s volume=%d loop=%v\n", show.Settings.BackgroundMusic, show.Settings.MusicVolume, show.Settings.MusicLoop)
			}
			if show.Empty() {
				cmd.Println(player.EmptyMessage)
				return nil
			}

			for i, slide := range show.Slides {
				view := render.Render(slide)
				cmd.Printf("%2d  %-12s %-17s %6dms  %s\n", i, slide.ID, slide.Type, slide.DurationMs(), view.Kind)
				if view.Diagnostic != nil {
					cmd.Printf("    diagnostic: %s\n", view.Diagnostic.Message)
				}
				if n := view.GalleryLen(); n > 1 {
					cmd.Printf("    gallery: %d images\n", n)
				}
				if len(slide.Notes) > 0 {
					cmd.Printf("    notes: %s\n", strings.Join(slide.Notes, "; "))
				}
			}
			return nil
		},
	}
}

func (a *app) shareCmd() *cobra.Command {
	var outFlag string
	var sizeFlag int

	cmd := &cobra.Command{
		Use:   "share [id]",
		Short: "Print the share link of a slideshow and optionally write its QR code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if _, err := st.GetSlideshow(cmd.Context(), id); err != nil {
				return err
			}

			link := share.Link(a.cfg.Share.BaseURL, id)
			if link == "" {
				return share.ErrNoBaseURL
			}
			cmd.Println(link)

			if outFlag == "" {
				return nil
			}
			png, err := share.QRCode(link, sizeFlag)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outFlag, png, 0644); err != nil {
				return err
			}
			cmd.Printf("QR code written to %s\n", outFlag)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the QR code PNG to this file")
	cmd.Flags().IntVar(&sizeFlag, "size", share.DefaultQRSize, "QR code size in pixels")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Println(version.GetInfo().String())
			return nil
		},
	}
}
