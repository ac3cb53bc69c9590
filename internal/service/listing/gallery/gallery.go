// Package gallery maintains the ordered image sequence of a listing.
//
// Position 0 is the primary image. Every mutation re-derives the primary
// flag from position, so after any operation a non-empty gallery has exactly
// one primary image and it is the first element. A Gallery is not safe for
// concurrent use; it is owned by a single edit session.
package gallery

import (
	"errors"
	"fmt"
	"slices"

	"github.com/heartmarshall/estate-backend/internal/domain"
)

// ErrIndexOutOfRange is returned by Reorder when an index does not address
// an element of the gallery.
var ErrIndexOutOfRange = errors.New("gallery: index out of range")

// InvariantError is the panic value raised when the primary-at-position-0
// invariant is found broken. It signals a bug in this package, never bad input.
type InvariantError struct {
	Op     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("gallery: invariant violated after %s: %s", e.Op, e.Reason)
}

// Gallery is an ordered list of images whose first element is primary.
type Gallery struct {
	images []domain.ImageRef
}

// New loads an existing sequence, e.g. one read back from storage.
// The first image flagged primary is moved to the front, keeping the
// relative order of the rest; when none is flagged the first image becomes
// primary. Images with an empty or repeated URL are dropped.
func New(images ...domain.ImageRef) *Gallery {
	g := &Gallery{images: make([]domain.ImageRef, 0, len(images))}
	for _, img := range images {
		if img.URL == "" || g.indexOf(img.URL) >= 0 {
			continue
		}
		g.images = append(g.images, img)
	}

	if idx := slices.IndexFunc(g.images, func(img domain.ImageRef) bool { return img.IsPrimary }); idx > 0 {
		g.moveToFront(idx)
	}
	g.rederive()
	g.mustHoldInvariant("load")
	return g
}

// Append adds images to the end of the sequence. When the gallery was empty
// the first appended image becomes primary; appended images are otherwise
// never primary. Empty and already present URLs are skipped.
func (g *Gallery) Append(images ...domain.ImageRef) {
	for _, img := range images {
		if img.URL == "" || g.indexOf(img.URL) >= 0 {
			continue
		}
		img.IsPrimary = false
		g.images = append(g.images, img)
	}
	g.rederive()
	g.mustHoldInvariant("append")
}

// Remove deletes the image with the given URL. Removing the primary image
// promotes the next one. Unknown URLs are ignored.
func (g *Gallery) Remove(url string) {
	idx := g.indexOf(url)
	if idx < 0 {
		return
	}
	g.images = slices.Delete(g.images, idx, idx+1)
	g.rederive()
	g.mustHoldInvariant("remove")
}

// Reorder moves the element at from to position to, shifting the elements
// in between. The element that ends up first becomes primary regardless of
// the flags the moved elements carried before.
func (g *Gallery) Reorder(from, to int) error {
	if from < 0 || from >= len(g.images) || to < 0 || to >= len(g.images) {
		return fmt.Errorf("%w: move %d -> %d with %d images", ErrIndexOutOfRange, from, to, len(g.images))
	}
	if from == to {
		return nil
	}

	moved := g.images[from]
	g.images = slices.Delete(g.images, from, from+1)
	g.images = slices.Insert(g.images, to, moved)

	g.rederive()
	g.mustHoldInvariant("reorder")
	return nil
}

// SetPrimary moves the image with the given URL to the front and makes it
// primary. Unknown URLs are ignored.
func (g *Gallery) SetPrimary(url string) {
	idx := g.indexOf(url)
	if idx < 0 {
		return
	}
	g.moveToFront(idx)
	g.rederive()
	g.mustHoldInvariant("set primary")
}

// Images returns a copy of the current sequence.
func (g *Gallery) Images() []domain.ImageRef {
	out := make([]domain.ImageRef, len(g.images))
	copy(out, g.images)
	return out
}

// Len returns the number of images.
func (g *Gallery) Len() int { return len(g.images) }

// Primary returns the primary image, if any.
func (g *Gallery) Primary() (domain.ImageRef, bool) {
	if len(g.images) == 0 {
		return domain.ImageRef{}, false
	}
	return g.images[0], true
}

// Contains reports whether an image with the given URL is present.
func (g *Gallery) Contains(url string) bool { return g.indexOf(url) >= 0 }

func (g *Gallery) indexOf(url string) int {
	return slices.IndexFunc(g.images, func(img domain.ImageRef) bool { return img.URL == url })
}

func (g *Gallery) moveToFront(idx int) {
	img := g.images[idx]
	copy(g.images[1:idx+1], g.images[:idx])
	g.images[0] = img
}

func (g *Gallery) rederive() {
	for i := range g.images {
		g.images[i].IsPrimary = i == 0
	}
}

func (g *Gallery) mustHoldInvariant(op string) {
	if err := check(g.images); err != nil {
		panic(&InvariantError{Op: op, Reason: err.Error()})
	}
}

// Check reports whether images satisfy the primary-at-position-0 invariant.
// It is used on sequences that did not come out of a Gallery.
func Check(images []domain.ImageRef) error {
	return check(images)
}

func check(images []domain.ImageRef) error {
	for i, img := range images {
		if i == 0 && !img.IsPrimary {
			return errors.New("first image is not primary")
		}
		if i > 0 && img.IsPrimary {
			return fmt.Errorf("image %d is primary", i)
		}
	}
	return nil
}
