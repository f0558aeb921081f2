package middleware

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/mindvault/backend/pkg/store"
)

type App struct {
	DBConn  *pgxpool.Pool
	Queue   *amqp091.Channel
	Storage store.VaultStorage
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(
	db *pgxpool.Pool,
	queue *amqp091.Channel,
	storage store.VaultStorage,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			app := &App{
				DBConn:  db,
				Queue:   queue,
				Storage: storage,
			}
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
