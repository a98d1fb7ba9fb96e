// exposes a Store interface that the service layer and API are built against
package db

import (
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/maxedmini/pi-kiosk/internal/model"
)

// ErrNotFound is returned when an operation references a page id that does
// not exist.
var ErrNotFound = errors.New("not found")

type Store interface {
	ListPages() ([]model.Page, error)
	GetPageByID(id int) (model.Page, error)
	CreatePage(p model.Page) (model.Page, error)
	UpdatePage(id int, upd model.PageUpdate) (model.Page, error)
	DeletePage(id int) (model.Page, error)
	ReorderPages(ids []int) error

	// Bulk operations run in a single transaction so readers never observe
	// a half-applied batch. The returned slice aligns with ids: a nil entry
	// is success, ErrNotFound marks a missing id without failing the batch.
	BulkUpdatePages(ids []int, upd model.PageUpdate) ([]error, error)
	BulkDeletePages(ids []int) ([]model.Page, []error, error)
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{db: DB}
}
