package handlers

import (
	"github.com/jmoiron/sqlx"

	"nokshibox/internal/config"
	"nokshibox/internal/mail"
	"nokshibox/internal/media"
	"nokshibox/internal/repos"
	"nokshibox/internal/services"
)

type Deps struct {
	Auth           *services.AuthService
	AuthHandler    *AuthHandler
	ResetHandler   *ResetHandler
	BrowseHandler  *BrowseHandler
	ProductHandler *ProductHandler
	ProfileHandler *ProfileHandler
	AdminHandler   *AdminHandler
	Media          *media.Store
}

func NewDeps(db *sqlx.DB, cfg config.Config, mailer mail.Mailer) *Deps {
	userRepo := repos.NewUserRepo(db)
	sessRepo := repos.NewSessionRepo(db)
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)

	store := media.NewStore(cfg.MediaDir, cfg.MaxUploadMB)
	cookies := Cookies{Secure: cfg.CookieSecure}

	authSvc := services.NewAuthService(userRepo, sessRepo, cfg.BcryptCost)
	resetSvc := services.NewResetService(userRepo, sessRepo, mailer, cfg.BcryptCost)
	profileSvc := services.NewProfileService(userRepo, prodRepo, mailer, cfg.BcryptCost)
	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	importSvc := services.NewImportService(catRepo, catalogSvc)
	adminSvc := services.NewAdminService(userRepo, catRepo, prodRepo)

	return &Deps{
		Auth:           authSvc,
		AuthHandler:    &AuthHandler{Auth: authSvc, Media: store, Cookies: cookies, AllowedHosts: cfg.AllowedHosts},
		ResetHandler:   &ResetHandler{Reset: resetSvc, Cookies: cookies},
		BrowseHandler:  &BrowseHandler{Catalog: catalogSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc, Importer: importSvc, Media: store},
		ProfileHandler: &ProfileHandler{Profiles: profileSvc, Media: store},
		AdminHandler:   &AdminHandler{Admin: adminSvc, Auth: authSvc, Cookies: cookies},
		Media:          store,
	}
}
