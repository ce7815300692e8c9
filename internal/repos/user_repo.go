package repos

import (
	"fmt"

	"nokshibox/internal/domain"

	"github.com/jmoiron/sqlx"
)

const userCols = `id,email,password_hash,role,full_name,mobile_no,photo,
  security_answer_1,security_answer_2,social_link,profile_completed,is_staff,
  created_at,COALESCE(updated_at,'') AS updated_at`

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) ByEmail(email string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByID(id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Create inserts u and fills in its id. A duplicate email yields ErrConflict.
func (r *UserRepo) Create(u *domain.User) error {
	res, err := r.DB.Exec(`
	  INSERT INTO users
	    (email,password_hash,role,full_name,mobile_no,photo,
	     security_answer_1,security_answer_2,social_link,profile_completed,is_staff)
	  VALUES(?,?,?,?,?,?,?,?,?,?,?)`,
		u.Email, u.Hash, u.Role, u.FullName, u.MobileNo, u.Photo,
		u.Answer1Hash, u.Answer2Hash, u.SocialLink, u.ProfileCompleted, u.IsStaff)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

// UpdateProfile writes the self-editable fields. Role, email and the staff
// flag are not touched.
func (r *UserRepo) UpdateProfile(u *domain.User) error {
	res, err := r.DB.Exec(`
	  UPDATE users SET
	    full_name=?, mobile_no=?, photo=?, social_link=?,
	    security_answer_1=?, security_answer_2=?, profile_completed=?,
	    password_hash=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?`,
		u.FullName, u.MobileNo, u.Photo, u.SocialLink,
		u.Answer1Hash, u.Answer2Hash, u.ProfileCompleted, u.Hash, u.ID)
	if err != nil {
		return fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return affected(res)
}

func (r *UserRepo) SetPassword(id int64, hash string) error {
	res, err := r.DB.Exec(`UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, hash, id)
	if err != nil {
		return fmt.Errorf("set password %d: %w", id, err)
	}
	return affected(res)
}

func (r *UserRepo) SetStaff(id int64, staff bool) error {
	res, err := r.DB.Exec(`UPDATE users SET is_staff=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, staff, id)
	if err != nil {
		return err
	}
	return affected(res)
}

type UserFilter struct {
	Role      domain.Role
	EmailLike string
}

func (r *UserRepo) List(f UserFilter) ([]domain.User, error) {
	where := `1=1`
	args := []any{}
	if f.Role != "" {
		where += ` AND role = ?`
		args = append(args, f.Role)
	}
	if f.EmailLike != "" {
		where += ` AND LOWER(email) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(f.EmailLike))
	}
	var out []domain.User
	err := r.DB.Select(&out, `SELECT `+userCols+` FROM users WHERE `+where+` ORDER BY email`, args...)
	return out, err
}

// DeleteCascade removes the user's products and sessions, then the user.
func (r *UserRepo) DeleteCascade(userID int64) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM products WHERE seller_id=?`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id=?`, userID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE sessions SET reset_user_id=NULL WHERE reset_user_id=?`, userID); err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return err
	}
	if err := affected(res); err != nil {
		return err
	}
	return tx.Commit()
}
