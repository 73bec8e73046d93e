package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/dastanaron/movies/internal/parser"
	"github.com/dastanaron/movies/internal/service"
)

// ImportCommand adds the movies of a bookmark file to the wishlist
type ImportCommand struct {
	fs       afero.Fs
	wishlist *service.WishlistService
	out      io.Writer
}

// NewImportCommand creates a new import command
func NewImportCommand(fs afero.Fs, wishlist *service.WishlistService, out io.Writer) *ImportCommand {
	return &ImportCommand{fs: fs, wishlist: wishlist, out: out}
}

// Execute imports movies from filePath. Movies already wishlisted are kept as they are.
func (c *ImportCommand) Execute(filePath string) error {
	file, err := c.fs.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	movies, err := parser.ParseWishlistHTML(file)
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	if err := c.wishlist.Load(); err != nil {
		return fmt.Errorf("failed to load wishlist: %w", err)
	}
	imported, err := c.wishlist.Add(movies...)
	if err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}

	color.New(color.FgGreen).Fprintf(c.out, "Imported %d movies.", imported)
	if skipped := len(movies) - imported; skipped > 0 {
		color.New(color.FgYellow).Fprintf(c.out, " Skipped %d already in the wishlist.", skipped)
	}
	fmt.Fprintln(c.out)
	return nil
}
