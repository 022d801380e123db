package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/paghive/paghive/pkg/client"
	"github.com/paghive/paghive/pkg/client/feed"
)

func newFeedCmd(a *app) *cobra.Command {
	var (
		pages   int
		refresh bool
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Browse the newest recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := feed.New(a.api,
				feed.WithPageSize(a.v.GetInt("page-size")),
				feed.WithRefreshDelay(0),
				feed.WithLogger(a.log),
			)

			var err error
			if refresh {
				err = r.Refresh(cmd.Context())
			} else {
				err = r.LoadPage(cmd.Context(), 1, false)
			}
			if err != nil {
				return err
			}
			for i := 1; i < pages; i++ {
				loaded, err := r.LoadMore(cmd.Context())
				if err != nil {
					return err
				}
				if !loaded {
					break
				}
			}

			out := cmd.OutOrStdout()
			printBooks(out, r.Items())
			if r.HasMore() {
				fmt.Fprintf(out, "-- more after page %d (use --pages %d)\n", r.CurrentPage(), r.CurrentPage()+1)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reload from the first page")
	return cmd
}

func newMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List the recommendations you posted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			books, err := a.api.UserBooks(cmd.Context(), u.Email)
			if err != nil {
				return err
			}
			printBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}
}

func newPostCmd(a *app) *cobra.Command {
	var (
		in        client.NewBook
		imagePath string
	)
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Share a book recommendation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := a.requireUser()
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if in.Image, err = client.ImageDataURL(raw); err != nil {
				return err
			}
			in.Email = u.Email
			if in.IdempotencyKey == "" {
				in.IdempotencyKey = uuid.NewString()
			}

			book, created, err := a.api.CreateBook(cmd.Context(), in)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Posted %q (%s)\n", book.Title, book.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Already posted %q (%s)\n", book.Title, book.ID)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "Book title")
	f.StringVar(&in.Caption, "caption", "", "Your thoughts")
	f.IntVar(&in.Rating, "rating", 0, "Stars, 1 to 5")
	f.StringVar(&imagePath, "image", "", "Cover image file")
	f.StringVar(&in.IdempotencyKey, "idempotency-key", "", "Reuse to retry a post without duplicating it")
	for _, name := range []string{"title", "caption", "rating", "image"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.DeleteBook(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func printBooks(w io.Writer, books []client.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No recommendations yet")
		return
	}
	for _, b := range books {
		author := "unknown"
		if b.User != nil && b.User.Name != "" {
			author = b.User.Name
		}
		fmt.Fprintf(w, "%s  %-30s %s  by %s\n", b.ID, b.Title, stars(b.Rating), author)
	}
}

func stars(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
