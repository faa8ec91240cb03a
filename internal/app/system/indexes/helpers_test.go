package indexes_test

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func mongoIndex(k1, k2, name string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: k1, Value: 1}, {Key: k2, Value: 1}},
		Options: options.Index().SetName(name),
	}
}
