package repos

import (
	"database/sql"

	"nokshibox/internal/domain"

	"github.com/jmoiron/sqlx"
)

// SessionRepo stores the server side of the 'sid' cookie: the signed-in
// user and any pending password-reset challenge.
type SessionRepo struct{ DB *sqlx.DB }

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{DB: db} }

func (r *SessionRepo) BindSession(sid string, userID int64) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

func (r *SessionRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
      SELECT u.id,u.email,u.password_hash,u.role,u.full_name,u.mobile_no,u.photo,
             u.security_answer_1,u.security_answer_2,u.social_link,u.profile_completed,u.is_staff,
             u.created_at,COALESCE(u.updated_at,'') AS updated_at
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *SessionRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}

// Delete drops the session row entirely.
func (r *SessionRepo) Delete(sid string) error {
	_, err := r.DB.Exec(`DELETE FROM sessions WHERE id=?`, sid)
	return err
}

// SetResetChallenge records that sid is resetting userID's password.
func (r *SessionRepo) SetResetChallenge(sid string, userID int64) error {
	_, err := r.DB.Exec(`INSERT INTO sessions(id,reset_user_id,last_seen)
                          VALUES(?,?,CURRENT_TIMESTAMP)
                          ON CONFLICT(id) DO UPDATE SET reset_user_id=excluded.reset_user_id,last_seen=CURRENT_TIMESTAMP`, sid, userID)
	return err
}

// ResetChallenge returns the user id pending reset for sid, or ErrNotFound.
func (r *SessionRepo) ResetChallenge(sid string) (int64, error) {
	var id sql.NullInt64
	if err := r.DB.Get(&id, `SELECT reset_user_id FROM sessions WHERE id=?`, sid); err != nil {
		return 0, notFound(err)
	}
	if !id.Valid {
		return 0, ErrNotFound
	}
	return id.Int64, nil
}

func (r *SessionRepo) ClearResetChallenge(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET reset_user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
