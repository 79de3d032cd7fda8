// Package folklore holds the archive record model as stored in the Archive collection.
package folklore

import "go.mongodb.org/mongo-driver/bson/primitive"

// AgeBucket is the contributor age range recorded at collection time.
type AgeBucket string

// Age buckets used by the collection forms.
const (
	Age18To24 AgeBucket = "18-24"
	Age25To34 AgeBucket = "25-34"
	Age35To44 AgeBucket = "35-44"
	Age45To54 AgeBucket = "45-54"
	Age55To64 AgeBucket = "55-64"
	Age65Plus AgeBucket = "65+"
)

// IsValid reports whether b is one of the known buckets.
func (b AgeBucket) IsValid() bool {
	switch b {
	case Age18To24, Age25To34, Age35To44, Age45To54, Age55To64, Age65Plus:
		return true
	}
	return false
}

// Location is a place, either where an item was collected or mentioned.
type Location struct {
	City        *string `bson:"city" json:"city"`
	State       *string `bson:"state" json:"state"`
	Country     *string `bson:"country" json:"country"`
	Geolocation *string `bson:"geolocation" json:"geolocation"`
}

// Contributor is the person who shared the item.
type Contributor struct {
	Name            string    `bson:"name" json:"name"`
	AgeBucket       AgeBucket `bson:"age_bucket" json:"age_bucket"`
	Gender          *string   `bson:"gender" json:"gender"`
	Ethnicity       string    `bson:"ethnicity" json:"ethnicity"`
	Nationality     *string   `bson:"nationality" json:"nationality"`
	LanguagesSpoken []string  `bson:"languages_spoken" json:"languages_spoken"`
	Occupation      *string   `bson:"occupation" json:"occupation"`
}

// Collector is the student who recorded the item.
type Collector struct {
	Name              string  `bson:"name" json:"name"`
	Gender            *string `bson:"gender" json:"gender"`
	CollectorComments string  `bson:"collector_comments" json:"collector_comments"`
}

// Context describes the circumstances of use and collection.
type Context struct {
	UseContext         *string `bson:"use_context" json:"use_context"`
	CulturalBackground *string `bson:"cultural_background" json:"cultural_background"`
	CollectionContext  *string `bson:"collection_context" json:"collection_context"`
}

// Analysis is the collector's interpretation of the item.
type Analysis struct {
	Context           Context `bson:"context" json:"context"`
	Interpretation    *string `bson:"interpretation" json:"interpretation"`
	CollectorComments *string `bson:"collector_comments" json:"collector_comments"`
}

// Item is the folklore item itself.
type Item struct {
	Item             string     `bson:"item" json:"item"`
	Genre            string     `bson:"genre" json:"genre"`
	LanguageOfOrigin *string    `bson:"language_of_origin" json:"language_of_origin"`
	Medium           string     `bson:"medium" json:"medium"`
	Translation      *string    `bson:"translation" json:"translation"`
	PlaceMentioned   []Location `bson:"place_mentioned" json:"place_mentioned"`
}

// Document is a single archive record.
type Document struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Filename          *string            `bson:"filename" json:"filename"`
	Contributor       Contributor        `bson:"contributor" json:"contributor"`
	Folklore          Item               `bson:"folklore" json:"folklore"`
	Collector         Collector          `bson:"collector" json:"collector"`
	Analysis          Analysis           `bson:"analysis" json:"analysis"`
	StorageMedium     string             `bson:"storage_medium" json:"storage_medium"`
	CleanedFullText   string             `bson:"cleaned_full_text" json:"cleaned_full_text"`
	DateCollected     string             `bson:"date_collected" json:"date_collected"`
	LocationCollected Location           `bson:"location_collected" json:"location_collected"`
}

// ObjectKey returns the object storage key of the scanned original, if any.
func (d *Document) ObjectKey() (string, bool) {
	if d.Filename == nil || *d.Filename == "" {
		return "", false
	}
	return *d.Filename, true
}
