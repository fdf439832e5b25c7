package driver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDriver runs find queries of the form [db.]collection.find({filter}).
// Every document becomes one row with a single JSON column.
type MongoDriver struct {
	uri    string
	client *mongo.Client
}

func NewMongoDriver(uri string) *MongoDriver {
	return &MongoDriver{uri: uri}
}

func (d *MongoDriver) Name() string {
	return "mongo"
}

func (d *MongoDriver) connect(ctx context.Context) error {
	if d.client != nil {
		return nil
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(d.uri))
	if err != nil {
		return err
	}
	d.client = client
	return nil
}

func (d *MongoDriver) Ping(ctx context.Context) error {
	if err := d.connect(ctx); err != nil {
		return err
	}
	return d.client.Ping(ctx, nil)
}

// mongoQuery is a parsed find command.
type mongoQuery struct {
	db         string
	collection string
	filter     bson.M
}

// parseMongoQuery parses "db.collection.find({...})" or "collection.find({...})".
// defaultDB is used when the query names no database.
func parseMongoQuery(query, defaultDB string) (*mongoQuery, error) {
	start := strings.Index(query, "(")
	end := strings.LastIndex(query, ")")
	if start == -1 || end == -1 || end < start {
		return nil, errors.New("invalid query format: expected collection.find(filter)")
	}

	jsonFilter := strings.TrimSpace(query[start+1 : end])
	if jsonFilter == "" {
		jsonFilter = "{}"
	}
	var filter bson.M
	if err := json.Unmarshal([]byte(jsonFilter), &filter); err != nil {
		return nil, fmt.Errorf("invalid filter JSON: %w", err)
	}

	segments := strings.Split(strings.TrimSpace(query[:start]), ".")
	if segments[len(segments)-1] != "find" {
		return nil, errors.New("only 'find' command is supported")
	}

	q := &mongoQuery{filter: filter}
	switch len(segments) {
	case 3:
		q.db, q.collection = segments[0], segments[1]
	case 2:
		q.db, q.collection = defaultDB, segments[0]
	default:
		return nil, errors.New("invalid query format: expected [db.]collection.find(...)")
	}
	if q.db == "" {
		return nil, errors.New("no database in query or connection URI")
	}
	if q.collection == "" {
		return nil, errors.New("collection name is empty")
	}
	return q, nil
}

// databaseFromURI returns the default database named in a mongodb:// URI path.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

func (d *MongoDriver) Query(ctx context.Context, query string) (RowStreamer, error) {
	q, err := parseMongoQuery(query, databaseFromURI(d.uri))
	if err != nil {
		return nil, err
	}
	if err := d.connect(ctx); err != nil {
		return nil, err
	}

	cursor, err := d.client.Database(q.db).Collection(q.collection).Find(ctx, q.filter)
	if err != nil {
		return nil, err
	}
	return &MongoStreamer{cursor: cursor, ctx: ctx}, nil
}

func (d *MongoDriver) Close() error {
	if d.client != nil {
		return d.client.Disconnect(context.Background())
	}
	return nil
}

// MongoStreamer implements RowStreamer over a cursor.
type MongoStreamer struct {
	cursor *mongo.Cursor
	ctx    context.Context
	row    bson.M
	err    error
}

func (s *MongoStreamer) Columns() ([]string, error) {
	return []string{"document"}, nil
}

func (s *MongoStreamer) Next() bool {
	if s.cursor.Next(s.ctx) {
		s.row = nil
		if err := s.cursor.Decode(&s.row); err != nil {
			s.err = err
			return false
		}
		return true
	}
	s.err = s.cursor.Err()
	return false
}

func (s *MongoStreamer) Scan(dest ...interface{}) error {
	if len(dest) != 1 {
		return errors.New("expected exactly 1 destination for document")
	}

	data, err := json.Marshal(s.row)
	if err != nil {
		return err
	}

	switch v := dest[0].(type) {
	case *string:
		*v = string(data)
	case *interface{}:
		*v = string(data)
	default:
		return errors.New("destination must be *string or *interface{}")
	}
	return nil
}

func (s *MongoStreamer) Err() error {
	return s.err
}

func (s *MongoStreamer) Close() error {
	return s.cursor.Close(s.ctx)
}
