package commands

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/afero"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/parser"
	"github.com/dastanaron/movies/internal/service"
)

// ExportCommand writes the wishlist to a Netscape bookmark file
type ExportCommand struct {
	fs       afero.Fs
	wishlist *service.WishlistService
	out      io.Writer
}

// NewExportCommand creates a new export command
func NewExportCommand(fs afero.Fs, wishlist *service.WishlistService, out io.Writer) *ExportCommand {
	return &ExportCommand{fs: fs, wishlist: wishlist, out: out}
}

// Execute exports the wishlist to filePath
func (c *ExportCommand) Execute(filePath string) error {
	if err := c.wishlist.Load(); err != nil {
		return fmt.Errorf("failed to load wishlist: %w", err)
	}
	movies := c.wishlist.List()

	file, err := c.fs.Create(filePath)
	if err != nil {
		return fmt.Errorf("cannot create file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	fmt.Fprintf(w, "<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	fmt.Fprintf(w, "<TITLE>Bookmarks</TITLE>\n")
	fmt.Fprintf(w, "<H1>Bookmarks</H1>\n")
	fmt.Fprintf(w, "<DL><p>\n")
	fmt.Fprintf(w, "    <DT><H3>Movie wishlist</H3>\n")
	fmt.Fprintf(w, "    <DL><p>\n")
	for i := range movies {
		writeMovie(w, &movies[i])
	}
	fmt.Fprintf(w, "    </DL><p>\n")
	fmt.Fprintf(w, "</DL><p>\n")

	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot write file: %w", err)
	}

	color.New(color.FgGreen).Fprintf(c.out, "Exported %d movies to %s\n", len(movies), filePath)
	return nil
}

// writeMovie writes a single wishlist entry
func writeMovie(w io.Writer, m *models.Movie) {
	fmt.Fprintf(w, "        <DT><A HREF=\"%s\"", html.EscapeString(parser.MovieURL(m.ID)))
	for _, attr := range [][2]string{
		{parser.AttrPoster, m.PosterPath},
		{parser.AttrBackdrop, m.BackdropPath},
		{parser.AttrRelease, m.ReleaseDate},
	} {
		if attr[1] != "" {
			fmt.Fprintf(w, " %s=\"%s\"", attr[0], html.EscapeString(attr[1]))
		}
	}
	if m.VoteAverage > 0 {
		fmt.Fprintf(w, " %s=\"%s\"", parser.AttrRating, strconv.FormatFloat(m.VoteAverage, 'f', -1, 64))
	}
	fmt.Fprintf(w, ">%s</A>\n", html.EscapeString(m.Title))
	if m.Overview != "" {
		fmt.Fprintf(w, "        <DD>%s\n", html.EscapeString(m.Overview))
	}
}
