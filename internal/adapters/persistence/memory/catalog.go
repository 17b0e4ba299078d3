package memory

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
)

type bookRepo struct{ s *Store }

func (r *bookRepo) Create(ctx context.Context, book *models.Book) error {
	return r.s.write(ctx, func(d *tables) error {
		now := r.s.now()
		book.ID = d.books.nextID()
		book.CreatedAt, book.UpdatedAt = now, now
		row := *book
		row.Author, row.Genre = nil, nil
		d.books.rows[book.ID] = row
		return nil
	})
}

func (r *bookRepo) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var out *models.Book
	err := r.s.read(ctx, func(d *tables) error {
		b, ok := d.books.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = withCatalog(d, b)
		return nil
	})
	return out, err
}

// GetByIDForUpdate relies on the transaction holding the store's write lock
func (r *bookRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	var out *models.Book
	err := r.s.read(ctx, func(d *tables) error {
		b, ok := d.books.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *bookRepo) Update(ctx context.Context, book *models.Book) error {
	return r.s.write(ctx, func(d *tables) error {
		current, ok := d.books.rows[book.ID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		row := *book
		row.Author, row.Genre = nil, nil
		row.IsAvailable = current.IsAvailable
		row.UpdatedAt = r.s.now()
		d.books.rows[book.ID] = row
		book.UpdatedAt = row.UpdatedAt
		return nil
	})
}

func (r *bookRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(d *tables) error {
		delete(d.books.rows, id)
		return nil
	})
}

func (r *bookRepo) List(ctx context.Context, filter repositories.BookFilter, offset, limit int) ([]*models.Book, int64, error) {
	var out []*models.Book
	err := r.s.read(ctx, func(d *tables) error {
		search := strings.ToLower(filter.Search)
		for _, b := range d.books.ordered() {
			if search != "" && !strings.Contains(strings.ToLower(b.Name), search) && !strings.Contains(strings.ToLower(b.ISBN), search) {
				continue
			}
			if filter.AuthorID != nil && (b.AuthorID == nil || *b.AuthorID != *filter.AuthorID) {
				continue
			}
			if filter.GenreID != nil && (b.GenreID == nil || *b.GenreID != *filter.GenreID) {
				continue
			}
			if filter.Available != nil && b.IsAvailable != *filter.Available {
				continue
			}
			out = append(out, withCatalog(d, b))
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	return paginate(out, offset, limit), total, nil
}

func (r *bookRepo) SetAvailability(ctx context.Context, id uint, available bool) error {
	return r.s.write(ctx, func(d *tables) error {
		b, ok := d.books.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		b.IsAvailable = available
		d.books.rows[id] = b
		return nil
	})
}

func withCatalog(d *tables, b models.Book) *models.Book {
	if b.AuthorID != nil {
		if a, ok := d.authors.rows[*b.AuthorID]; ok {
			b.Author = &a
		}
	}
	if b.GenreID != nil {
		if g, ok := d.genres.rows[*b.GenreID]; ok {
			b.Genre = &g
		}
	}
	return &b
}

type authorRepo struct{ s *Store }

func (r *authorRepo) Create(ctx context.Context, author *models.Author) error {
	return r.s.write(ctx, func(d *tables) error {
		for _, a := range d.authors.rows {
			if strings.EqualFold(a.Name, author.Name) {
				return gorm.ErrDuplicatedKey
			}
		}
		now := r.s.now()
		author.ID = d.authors.nextID()
		author.CreatedAt, author.UpdatedAt = now, now
		d.authors.rows[author.ID] = *author
		return nil
	})
}

func (r *authorRepo) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	var out *models.Author
	err := r.s.read(ctx, func(d *tables) error {
		a, ok := d.authors.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *authorRepo) GetByName(ctx context.Context, name string) (*models.Author, error) {
	var out *models.Author
	err := r.s.read(ctx, func(d *tables) error {
		for _, a := range d.authors.rows {
			if strings.EqualFold(a.Name, name) {
				out = &a
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *authorRepo) List(ctx context.Context) ([]*models.Author, error) {
	var out []*models.Author
	err := r.s.read(ctx, func(d *tables) error {
		for _, a := range d.authors.ordered() {
			out = append(out, &a)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *authorRepo) Update(ctx context.Context, author *models.Author) error {
	return r.s.write(ctx, func(d *tables) error {
		if _, ok := d.authors.rows[author.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		for id, a := range d.authors.rows {
			if id != author.ID && strings.EqualFold(a.Name, author.Name) {
				return gorm.ErrDuplicatedKey
			}
		}
		author.UpdatedAt = r.s.now()
		d.authors.rows[author.ID] = *author
		return nil
	})
}

func (r *authorRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(d *tables) error {
		delete(d.authors.rows, id)
		return nil
	})
}

type genreRepo struct{ s *Store }

func (r *genreRepo) Create(ctx context.Context, genre *models.Genre) error {
	return r.s.write(ctx, func(d *tables) error {
		for _, g := range d.genres.rows {
			if strings.EqualFold(g.Name, genre.Name) {
				return gorm.ErrDuplicatedKey
			}
		}
		now := r.s.now()
		genre.ID = d.genres.nextID()
		genre.CreatedAt, genre.UpdatedAt = now, now
		d.genres.rows[genre.ID] = *genre
		return nil
	})
}

func (r *genreRepo) GetByID(ctx context.Context, id uint) (*models.Genre, error) {
	var out *models.Genre
	err := r.s.read(ctx, func(d *tables) error {
		g, ok := d.genres.rows[id]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		out = &g
		return nil
	})
	return out, err
}

func (r *genreRepo) GetByName(ctx context.Context, name string) (*models.Genre, error) {
	var out *models.Genre
	err := r.s.read(ctx, func(d *tables) error {
		for _, g := range d.genres.rows {
			if strings.EqualFold(g.Name, name) {
				out = &g
				return nil
			}
		}
		return gorm.ErrRecordNotFound
	})
	return out, err
}

func (r *genreRepo) List(ctx context.Context) ([]*models.Genre, error) {
	var out []*models.Genre
	err := r.s.read(ctx, func(d *tables) error {
		for _, g := range d.genres.ordered() {
			out = append(out, &g)
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r *genreRepo) Update(ctx context.Context, genre *models.Genre) error {
	return r.s.write(ctx, func(d *tables) error {
		if _, ok := d.genres.rows[genre.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		for id, g := range d.genres.rows {
			if id != genre.ID && strings.EqualFold(g.Name, genre.Name) {
				return gorm.ErrDuplicatedKey
			}
		}
		genre.UpdatedAt = r.s.now()
		d.genres.rows[genre.ID] = *genre
		return nil
	})
}

func (r *genreRepo) Delete(ctx context.Context, id uint) error {
	return r.s.write(ctx, func(d *tables) error {
		delete(d.genres.rows, id)
		return nil
	})
}
