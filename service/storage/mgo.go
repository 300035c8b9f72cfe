package storage

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Bhawani9828/slack-clone-sub001/tools/errs"
)

var (
	mongoOnce sync.Once
	mongoCli  *mongo.Client
	mongoDB   *mongo.Database
)

// MongoConfig configures the shared mongo client. Only the push-token store
// persists anything; message history is the external store's job.
type MongoConfig struct {
	URI         string
	Database    string
	Username    string
	Password    string
	MaxPoolSize uint64
}

// InitMongo connects the shared client (singleton, first call wins).
func InitMongo(ctx context.Context, c MongoConfig) error {
	var initErr error
	mongoOnce.Do(func() {
		opts := options.Client().ApplyURI(c.URI)
		if c.MaxPoolSize > 0 {
			opts.SetMaxPoolSize(c.MaxPoolSize)
		}
		if c.Username != "" {
			opts.SetAuth(options.Credential{Username: c.Username, Password: c.Password})
		}

		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		cli, err := mongo.Connect(connectCtx, opts)
		if err != nil {
			initErr = errs.Wrap(err, "mongo connect")
			return
		}
		if err := cli.Ping(connectCtx, nil); err != nil {
			initErr = errs.Wrap(err, "mongo ping")
			return
		}
		mongoCli = cli
		mongoDB = cli.Database(c.Database)
	})
	return initErr
}

// GetMongoDB returns the shared database handle; nil until InitMongo
// succeeds.
func GetMongoDB() *mongo.Database { return mongoDB }

// CloseMongo disconnects the shared client.
func CloseMongo(ctx context.Context) error {
	if mongoCli != nil {
		return mongoCli.Disconnect(ctx)
	}
	return nil
}
