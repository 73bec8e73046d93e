package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/repository"
	"github.com/dastanaron/movies/internal/service"
)

// RepairCommand rewrites stored collections in their canonical form
type RepairCommand struct {
	store    repository.Store
	wishlist *service.WishlistService
	history  *service.HistoryService
	out      io.Writer
}

// NewRepairCommand creates a new repair command
func NewRepairCommand(state *service.State, out io.Writer) *RepairCommand {
	return &RepairCommand{
		store:    state.Store,
		wishlist: state.Wishlist,
		history:  state.History,
		out:      out,
	}
}

// Execute removes duplicate and invalid wishlist entries (keeping the first
// one found) and trims the search history.
func (c *RepairCommand) Execute() error {
	warn := color.New(color.FgYellow)

	var stored []models.Movie
	ok, err := repository.GetJSON(c.store, models.KeyWishlist, &stored)
	if err != nil {
		return fmt.Errorf("failed to read wishlist: %w", err)
	}
	if raw, present, _ := c.store.Get(models.KeyWishlist); present && !ok && raw != "" {
		warn.Fprintln(c.out, "Stored wishlist is unreadable, resetting it.")
	}

	seen := make(map[int]bool)
	dropped := 0
	for _, m := range stored {
		switch {
		case m.ID <= 0:
			warn.Fprintf(c.out, "Found invalid entry: '%s' (ID: %d)\n", m.Title, m.ID)
			dropped++
		case seen[m.ID]:
			warn.Fprintf(c.out, "Found duplicate: '%s' (ID: %d)\n", m.Title, m.ID)
			dropped++
		default:
			seen[m.ID] = true
		}
	}

	if err := c.wishlist.Replace(stored); err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}

	if err := c.history.Load(); err != nil {
		return fmt.Errorf("failed to read search history: %w", err)
	}
	if err := c.history.Compact(); err != nil {
		return fmt.Errorf("failed to save search history: %w", err)
	}

	if dropped == 0 {
		fmt.Fprintln(c.out, "No duplicate wishlist entries found.")
	} else {
		color.New(color.FgGreen).Fprintf(c.out, "Removed %d wishlist entr%s.\n", dropped, plural(dropped, "y", "ies"))
	}
	fmt.Fprintf(c.out, "Wishlist: %d movies, search history: %d queries.\n", len(c.wishlist.List()), len(c.history.List()))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
