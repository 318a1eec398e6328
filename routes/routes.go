package routes

import (
	"driza/admin"
	"driza/auth"
	"driza/chats"
	"driza/home"
	"driza/listings"
	"driza/live"
	"driza/middleware"
	"driza/profile"
	"driza/ratelim"
	"driza/search"
	"driza/utils"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.POST("/api/auth/register", rl.Limit(auth.Register))
	router.POST("/api/auth/login", rl.Limit(auth.Login))
	router.POST("/api/auth/logout", middleware.Authenticate(auth.Logout))
}

func AddListingRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/listings/:type/:id", listings.GetListing)
	router.POST("/api/listings/:type", rl.Limit(middleware.Authenticate(listings.CreateListing)))
	router.PUT("/api/listings/:type/:id", middleware.Authenticate(listings.EditListing))
	router.DELETE("/api/listings/:type/:id", middleware.Authenticate(listings.DeleteListing))
	router.POST("/api/listings/:type/:id/save", rl.Limit(middleware.Authenticate(listings.ToggleSave)))
}

func AddHomeRoutes(router *httprouter.Router) {
	router.GET("/api/home/feed/:type", home.GetFeed)
}

func AddProfileRoutes(router *httprouter.Router) {
	router.GET("/api/profile", middleware.Authenticate(profile.GetProfile))
	router.PUT("/api/profile", middleware.Authenticate(profile.EditProfile))
	router.GET("/api/profile/listings", middleware.Authenticate(profile.GetOwnedListings))
	router.GET("/api/profile/saved", middleware.Authenticate(profile.GetSavedListings))
}

func AddChatRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/chats/:id", middleware.Authenticate(chats.GetMessages))
	router.POST("/api/chats/:id", rl.Limit(middleware.Authenticate(chats.PostMessage)))
}

func AddSearchRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/search", rl.Limit(middleware.Authenticate(search.ServeSearch)))
}

func AddAdminRoutes(router *httprouter.Router) {
	router.GET("/admin/search", middleware.Authenticate(admin.SearchListings))
	router.GET("/admin/users", middleware.Authenticate(admin.GetUsers))
	router.PUT("/admin/listings/:type/:id/estado", middleware.Authenticate(admin.SetEstado))
	router.POST("/admin/users/:uid/ban", middleware.Authenticate(admin.BanUser))
	router.DELETE("/admin/users/:uid/content", middleware.Authenticate(admin.DeleteUserContent))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/ws/listings/:type", live.ServeWS(hub))
	router.GET("/ws/chats/:id", live.ServeChat(hub))
}

func AddUtilityRoutes(router *httprouter.Router, rl *ratelim.RateLimiter) {
	router.GET("/api/csrf", rl.Limit(utils.CSRF))
}
