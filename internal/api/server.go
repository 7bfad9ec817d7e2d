package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/merchshop/api/docs"
	v1 "github.com/merchshop/api/internal/api/handler/v1"
	"github.com/merchshop/api/internal/api/middleware"
	"github.com/merchshop/api/internal/config"
	"github.com/merchshop/api/internal/repository"
	"github.com/merchshop/api/internal/repository/dao"
	"github.com/merchshop/api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	storeHandler := s.initStoreHandler(db)
	s.MountHandlers(authHandler, storeHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initStoreHandler(db *gorm.DB) *v1.StoreHandler {
	repo := repository.NewStoreRepository(db)
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewStoreService(repo, userRepo)
	handler := v1.NewStoreHandler(svc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(authHandler *v1.AuthHandler, storeHandler *v1.StoreHandler) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth", authHandler.HandleAuth)
	}

	store := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		store.GET("/buy/:item", storeHandler.HandleBuyItem)
		store.POST("/sendCoin", storeHandler.HandleSendCoin)
		store.GET("/info", storeHandler.HandleInfo)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Merch Store API"
	docs.SwaggerInfo.Description = "Coin balance, catalog purchases and coin transfers."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
