package app

import (
	"fmt"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/internal/todos/infrastructure/persistence"
)

// repositories is the storage a container runs on.
type repositories struct {
	items  item.Repository
	outbox outbox.Repository
}

// repositoryBuilders pairs each driver with the dialect of every repository.
var repositoryBuilders = map[database.Driver]func(database.Connection) repositories{
	database.DriverPostgres: func(conn database.Connection) repositories {
		return repositories{
			items:  persistence.NewPostgresItemRepository(conn),
			outbox: outbox.NewPostgresRepository(conn),
		}
	},
	database.DriverSQLite: func(conn database.Connection) repositories {
		return repositories{
			items:  persistence.NewSQLiteItemRepository(conn),
			outbox: outbox.NewSQLiteRepository(conn),
		}
	},
}

// newRepositories builds the repositories matching conn's driver.
func newRepositories(conn database.Connection) (repositories, error) {
	build, ok := repositoryBuilders[conn.Driver()]
	if !ok {
		return repositories{}, fmt.Errorf("unsupported driver: %s", conn.Driver())
	}
	return build(conn), nil
}
