package calendar

import (
	"context"
	"fmt"
	"time"

	"bookingagent/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appointmentsCollection = "appointments"

// MongoCalendar keeps appointments in a MongoDB collection. Every stored
// appointment is a busy interval.
type MongoCalendar struct {
	coll *mongo.Collection
}

func NewMongoCalendar(db *mongo.Database) *MongoCalendar {
	return &MongoCalendar{coll: db.Collection(appointmentsCollection)}
}

// EnsureIndexes creates the indexes the overlap query relies on.
func (c *MongoCalendar) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "start", Value: 1}, {Key: "end", Value: 1}},
			Options: options.Index().SetName("start_end_idx"),
		},
	}
	if _, err := c.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}
	return nil
}

func (c *MongoCalendar) QueryBusyIntervals(ctx context.Context, start, end time.Time) ([]models.BusyInterval, error) {
	filter := bson.M{
		"start": bson.M{"$lt": end},
		"end":   bson.M{"$gt": start},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}})
	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var busy []models.BusyInterval
	for cursor.Next(ctx) {
		var appt models.Appointment
		if err := cursor.Decode(&appt); err != nil {
			return nil, fmt.Errorf("error decoding appointment: %w", err)
		}
		busy = append(busy, models.BusyInterval{Start: appt.Start, End: appt.End})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return busy, nil
}

func (c *MongoCalendar) CommitAppointment(ctx context.Context, appt models.Appointment) error {
	if _, err := c.coll.InsertOne(ctx, appt); err != nil {
		return fmt.Errorf("error creating appointment %s: %w", appt.ID, err)
	}
	return nil
}
