package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventreg/entity"
	"eventreg/internal/config"
	"eventreg/lib/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers    = "users"
	collectionStudents = "students"
)

// MongoDB serves API users, Telegram subscribers and the student directory.
type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoDB) GetUser(token string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	err = collection.FindOne(m.ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.CodeUnauthorized, "token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find user: %w", err)
	}
	return &user, nil
}

// Profile implements the directory lookup by registration number.
func (m *MongoDB) Profile(ctx context.Context, submitterID string) (*entity.Profile, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := connection.Database(m.database).Collection(collectionStudents)
	filter := bson.D{{Key: "reg_no", Value: submitterID}}
	var profile entity.Profile
	err = collection.FindOne(ctx, filter).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Newf(apperr.CodeNotFound, "submitter %s not found in directory", submitterID)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find profile: %w", err)
	}
	return &profile, nil
}

func (m *MongoDB) GetTelegramUsers() ([]*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: bson.D{{Key: "$gt", Value: 0}}}}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(m.ctx)

	var users []*entity.User
	err = cursor.All(m.ctx, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// LinkTelegram attaches a Telegram chat to the user owning token.
func (m *MongoDB) LinkTelegram(token string, telegramId int64, username string) (*entity.User, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "telegram_id", Value: telegramId},
		{Key: "telegram_username", Value: username},
		{Key: "telegram_enabled", Value: true},
		{Key: "registered_at", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user entity.User
	err = collection.FindOneAndUpdate(m.ctx, filter, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.New(apperr.CodeUnauthorized, "token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb link telegram: %w", err)
	}
	return &user, nil
}

func (m *MongoDB) SetTelegramEnabled(id int64, isActive bool, logLevel int) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)
	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: id}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "telegram_enabled", Value: isActive},
		{Key: "log_level", Value: logLevel},
	}}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}
