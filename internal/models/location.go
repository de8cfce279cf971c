package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Location struct {
	Type        string    `json:"type" bson:"type" default:"Point"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates" validate:"required,len=2"`
	Address     string    `json:"address" bson:"address"`
}

func (l Location) Latitude() float64 {
	if len(l.Coordinates) >= 2 {
		return l.Coordinates[1]
	}
	return 0
}

func (l Location) Longitude() float64 {
	if len(l.Coordinates) >= 1 {
		return l.Coordinates[0]
	}
	return 0
}

func NewLocation(lat, lng float64, address string) Location {
	return Location{
		Type:        "Point",
		Coordinates: []float64{lng, lat},
		Address:     address,
	}
}

// DriverLocation is the last known position of an online driver, keyed by
// driver id. Upserted on every ping, removed when the driver goes offline.
type DriverLocation struct {
	DriverID  primitive.ObjectID `json:"driver_id" bson:"_id"`
	Latitude  float64            `json:"latitude" bson:"latitude"`
	Longitude float64            `json:"longitude" bson:"longitude"`
	Heading   float64            `json:"heading" bson:"heading"`
	Cell      int64              `json:"cell" bson:"cell"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}
