package folklore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestAgeBucket_IsValid(t *testing.T) {
	assert.True(t, Age35To44.IsValid())
	assert.True(t, AgeBucket("65+").IsValid())
	assert.False(t, AgeBucket("17").IsValid())
	assert.False(t, AgeBucket("").IsValid())
}

func TestDocument_ObjectKey(t *testing.T) {
	var d Document
	_, ok := d.ObjectKey()
	assert.False(t, ok)

	empty := ""
	d.Filename = &empty
	_, ok = d.ObjectKey()
	assert.False(t, ok)

	name := "scans/2019/lullaby.pdf"
	d.Filename = &name
	key, ok := d.ObjectKey()
	require.True(t, ok)
	assert.Equal(t, name, key)
}

func TestDocument_DecodesNestedBSON(t *testing.T) {
	id := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: id},
		{Key: "folklore", Value: bson.D{
			{Key: "item", Value: "Anansi and the pot of wisdom"},
			{Key: "genre", Value: "folktale"},
			{Key: "language_of_origin", Value: nil},
		}},
		{Key: "location_collected", Value: bson.D{{Key: "country", Value: "Ghana"}}},
		{Key: "cleaned_full_text", Value: "Anansi wanted all the wisdom"},
	})
	require.NoError(t, err)

	var d Document
	require.NoError(t, bson.Unmarshal(raw, &d))
	assert.Equal(t, id, d.ID)
	assert.Equal(t, "folktale", d.Folklore.Genre)
	assert.Nil(t, d.Folklore.LanguageOfOrigin)
	require.NotNil(t, d.LocationCollected.Country)
	assert.Equal(t, "Ghana", *d.LocationCollected.Country)
}

func TestDocument_JSONUsesUnderscoreID(t *testing.T) {
	d := Document{ID: primitive.NewObjectID()}
	out, err := json.Marshal(d)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(out, &m))
	assert.Equal(t, d.ID.Hex(), m["_id"])
}
