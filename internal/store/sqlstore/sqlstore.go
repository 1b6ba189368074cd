// Package sqlstore implements the metadata store on gorm. Postgres is the
// production dialect; tests run the same code on in-memory sqlite.
package sqlstore

import (
	"context"
	"errors"
	"strings"

	"github.com/filesmanager/backend/internal/models"
	"github.com/filesmanager/backend/internal/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db    *gorm.DB
	users *userRepository
	files *fileRepository
}

var _ store.Backend = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		users: &userRepository{db: db},
		files: &fileRepository{db: db},
	}
}

func (s *Store) Users() store.Users { return s.users }
func (s *Store) Files() store.Files { return s.files }

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// validID guards uuid columns: postgres rejects malformed uuids with an error,
// which callers must see as a plain miss.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

type fileRepository struct {
	db *gorm.DB
}

func (r *fileRepository) InsertUnder(ctx context.Context, file *models.File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if file.ParentID != models.RootParentID {
			if !validID(file.ParentID) {
				return store.ErrParentNotFound
			}

			query := tx.Select("id", "type")
			if tx.Dialector.Name() == "postgres" {
				// Hold the parent until the child row commits.
				query = query.Clauses(clause.Locking{Strength: "SHARE"})
			}

			var parent models.File
			if err := query.First(&parent, "id = ?", file.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return store.ErrParentNotFound
				}
				return err
			}
			if !parent.IsFolder() {
				return store.ErrParentNotFolder
			}
		}

		seq, err := nextSeq(tx)
		if err != nil {
			return err
		}
		file.Seq = seq
		return tx.Create(file).Error
	})
}

// nextSeq bumps the files counter inside tx. The row lock taken by the update
// serializes concurrent inserts until commit, so Seq never repeats and
// follows insertion order even when created_at ties.
func nextSeq(tx *gorm.DB) (int64, error) {
	res := tx.Model(&models.FileSequence{}).
		Where("name = ?", models.FileSequenceName).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		row := models.FileSequence{Name: models.FileSequenceName, Value: 1}
		if err := tx.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.Value, nil
	}

	var row models.FileSequence
	if err := tx.Select("value").First(&row, "name = ?", models.FileSequenceName).Error; err != nil {
		return 0, err
	}
	return row.Value, nil
}

func (r *fileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	if !validID(id) {
		return nil, store.ErrNotFound
	}
	var file models.File
	if err := r.db.WithContext(ctx).First(&file, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

func (r *fileRepository) FindOwned(ctx context.Context, id, userID string) (*models.File, error) {
	if !validID(id) || !validID(userID) {
		return nil, store.ErrNotFound
	}
	var file models.File
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&file).Error; err != nil {
		return nil, translate(err)
	}
	return &file, nil
}

func (r *fileRepository) List(ctx context.Context, userID, parentID string, skip, limit int) ([]models.File, error) {
	files := []models.File{}
	if !validID(userID) || skip < 0 {
		return files, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND parent_id = ?", userID, parentID).
		Order("seq ASC").
		Offset(skip).
		Limit(limit).
		Find(&files).Error
	return files, err
}

func (r *fileRepository) SetPublic(ctx context.Context, id, userID string, isPublic bool) (*models.File, error) {
	if !validID(id) || !validID(userID) {
		return nil, store.ErrNotFound
	}
	result := r.db.WithContext(ctx).
		Model(&models.File{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_public", isPublic)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, store.ErrNotFound
	}
	return r.FindOwned(ctx, id, userID)
}

func (r *fileRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.File{}).Count(&count).Error
	return count, err
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	return err
}
