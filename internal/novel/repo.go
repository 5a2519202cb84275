package novel

import (
	"context"
	"database/sql"
	"fmt"

	"novelhub/pkg/models"
)

// Repo owns all persistence for novels and their related authors and
// genres. Mutation goes through insert-or-ignore statements keyed on the
// unique columns, so every operation is idempotent and first-writer-wins:
// the store's unique constraints are the only serialization point, no
// in-process lock is taken.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// dbtx lets the lookup-or-create helpers run either directly on the pool
// or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FindOrCreateAuthor returns the id of the author row with the given
// name, inserting it first if absent. Calling it any number of times with
// the same name yields the same id.
func (r *Repo) FindOrCreateAuthor(ctx context.Context, name string) (int64, error) {
	return r.findOrCreateAuthor(ctx, r.DB, name)
}

func (r *Repo) findOrCreateAuthor(ctx context.Context, q dbtx, name string) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO authors (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return 0, fmt.Errorf("insert author: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("author insert id: %w", err)
		}
		return id, nil
	}

	// the insert was ignored (row already there, or we lost a concurrent
	// race): re-select to recover the winner's id
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM authors WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("reselect author %q: %w", name, err)
	}
	return id, nil
}

// FindOrCreateGenre is the author pattern applied to genres.
func (r *Repo) FindOrCreateGenre(ctx context.Context, name string) (int64, error) {
	return r.findOrCreateGenre(ctx, r.DB, name)
}

func (r *Repo) findOrCreateGenre(ctx context.Context, q dbtx, name string) (int64, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO genres (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return 0, fmt.Errorf("insert genre: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("genre insert id: %w", err)
		}
		return id, nil
	}

	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM genres WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("reselect genre %q: %w", name, err)
	}
	return id, nil
}

// UpsertNovel inserts rec keyed on its unique source URL. created=false
// means a novel with that URL already existed and nothing was written;
// the first writer's row is retained as-is.
func (r *Repo) UpsertNovel(ctx context.Context, rec models.NovelRecord, authorID sql.NullInt64) (int64, bool, error) {
	return r.upsertNovel(ctx, r.DB, rec, authorID)
}

func (r *Repo) upsertNovel(ctx context.Context, q dbtx, rec models.NovelRecord, authorID sql.NullInt64) (int64, bool, error) {
	res, err := q.ExecContext(ctx, `
		INSERT INTO novels (title, source_url, synopsis, cover_image_url, author_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO NOTHING
	`, rec.Title, rec.SourceURL, rec.Synopsis, rec.CoverURL, authorID)
	if err != nil {
		return 0, false, fmt.Errorf("insert novel: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("novel rows affected: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("novel insert id: %w", err)
	}
	return id, true, nil
}

// LinkGenre records the novel/genre association, ignoring duplicates.
func (r *Repo) LinkGenre(ctx context.Context, novelID, genreID int64) error {
	return r.linkGenre(ctx, r.DB, novelID, genreID)
}

func (r *Repo) linkGenre(ctx context.Context, q dbtx, novelID, genreID int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO novel_genres (novel_id, genre_id)
		VALUES (?, ?)
		ON CONFLICT(novel_id, genre_id) DO NOTHING
	`, novelID, genreID)
	if err != nil {
		return fmt.Errorf("link genre: %w", err)
	}
	return nil
}

// SaveNovel persists one scraped record in a single transaction: author
// lookup-or-create, novel upsert, and genre linking either all land or
// none do, so a novel can never persist without its genre links. Genres
// are linked only when the novel row was freshly inserted; a pre-existing
// novel is left untouched.
func (r *Repo) SaveNovel(ctx context.Context, rec models.NovelRecord) (int64, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var authorID sql.NullInt64
	if rec.Author != "" {
		id, err := r.findOrCreateAuthor(ctx, tx, rec.Author)
		if err != nil {
			return 0, false, err
		}
		authorID = sql.NullInt64{Int64: id, Valid: true}
	}

	novelID, created, err := r.upsertNovel(ctx, tx, rec, authorID)
	if err != nil {
		return 0, false, err
	}

	if created {
		for _, name := range rec.Genres {
			genreID, err := r.findOrCreateGenre(ctx, tx, name)
			if err != nil {
				return 0, false, err
			}
			if err := r.linkGenre(ctx, tx, novelID, genreID); err != nil {
				return 0, false, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit tx: %w", err)
	}
	return novelID, created, nil
}

// ListAll returns every stored novel joined with its author name and
// genre list, in natural row order.
func (r *Repo) ListAll(ctx context.Context) ([]models.NovelWithMeta, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT n.id, n.title, n.source_url, n.synopsis, n.cover_image_url, a.name
		FROM novels n
		LEFT JOIN authors a ON a.id = n.author_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list novels: %w", err)
	}
	defer rows.Close()

	out := make([]models.NovelWithMeta, 0)
	for rows.Next() {
		var (
			m          models.NovelWithMeta
			synopsis   sql.NullString
			coverURL   sql.NullString
			authorName sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.SourceURL, &synopsis, &coverURL, &authorName); err != nil {
			return nil, fmt.Errorf("scan novel row: %w", err)
		}
		m.Synopsis = synopsis.String
		m.CoverImageURL = coverURL.String
		m.AuthorName = authorName.String
		m.Genres = []string{}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	rows.Close()

	// second pass: the db handle holds a single sqlite connection, so the
	// genre sub-queries must run after the novels cursor is drained
	for i := range out {
		genres, err := r.genreNames(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Genres = genres
	}
	return out, nil
}

func (r *Repo) genreNames(ctx context.Context, novelID int64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT g.name
		FROM genres g
		JOIN novel_genres ng ON ng.genre_id = g.id
		WHERE ng.novel_id = ?
	`, novelID)
	if err != nil {
		return nil, fmt.Errorf("list genres for novel %d: %w", novelID, err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan genre name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return names, nil
}
