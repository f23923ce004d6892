// Auth is a backend for passkey authentication
package main

import (
	"fmt"
	"time"

	"github.com/VinukaThejana/go-utils/logger"
	"github.com/cloudclip/auth/config"
	"github.com/cloudclip/auth/connect"
	"github.com/cloudclip/auth/controllers"
	"github.com/cloudclip/auth/middleware"
	"github.com/cloudclip/auth/services"
	"github.com/cloudclip/auth/token"
	"github.com/cloudclip/auth/utils"
	"github.com/cloudclip/auth/verify"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
)

var (
	env  config.Env
	conn connect.Connector
)

func init() {
	env.Load()

	conn.InitDatabase(&env)
	utils.CheckForMigrations(&conn, &env)

	conn.InitRatelimiter(&env)
	conn.InitRedis(&env)
}

func main() {
	app := fiber.New()
	if config.GetDevEnv(&env) == config.Dev {
		app.Use(fiberLogger.New())
	}

	app.Use(cors.New(cors.Config{
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowOrigins:     env.AllowedOrigins,
		AllowCredentials: true,
		AllowMethods:     "*",
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusTooManyRequests)
		},
		SkipFailedRequests:     false,
		SkipSuccessfulRequests: false,
		LimiterMiddleware:      limiter.SlidingWindow{},
		Storage:                conn.Ratelimter,
	}))

	authMiddleware := middleware.Auth{
		Conn: &conn,
		Env:  &env,
	}

	rpS := services.RP{
		Env: &env,
	}
	passkeysS := services.PassKeys{
		RPName:  env.RPName,
		Origins: env.WebOrigins(),
		Challenges: &services.Challenge{
			Conn: &conn,
			TTL:  env.ChallengeTTL,
		},
		Credentials: &services.Credentials{
			Conn: &conn,
		},
		Users: &services.User{
			Conn: &conn,
		},
		Engine: verify.WebAuthn{},
		Tokens: &token.SessionToken{
			Env: &env,
		},
	}

	passkeysC := controllers.PassKeys{
		Env: &env,
		RP:  &rpS,
		Svc: &passkeysS,
	}
	systemC := controllers.System{
		Conn: &conn,
	}

	app.Route("/passkeys", func(router fiber.Router) {
		router.Get("/register/options", authMiddleware.Check, passkeysC.RegistrationOptions)
		router.Post("/register/verify", authMiddleware.Check, passkeysC.RegistrationVerify)
		router.Get("/login/options", passkeysC.AuthenticationOptions)
		router.Post("/login/verify", passkeysC.AuthenticationVerify)
	})

	app.Get("/health", systemC.Health)

	app.Route("/monitor", func(router fiber.Router) {
		router.Get("/metrics", monitor.New(monitor.Config{
			Title: "Monitor Auth",
		}))
	})

	logger.Errorf(app.Listen(fmt.Sprintf(":%s", env.Port)))
}
