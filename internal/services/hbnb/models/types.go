package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Class names of the registered entity types.
const (
	ClassBaseModel = "BaseModel"
	ClassUser      = "User"
	ClassState     = "State"
	ClassCity      = "City"
	ClassAmenity   = "Amenity"
	ClassPlace     = "Place"
	ClassReview    = "Review"
)

var classOrder = []string{
	ClassBaseModel,
	ClassUser,
	ClassState,
	ClassCity,
	ClassAmenity,
	ClassPlace,
	ClassReview,
}

var constructors = map[string]func() Entity{
	ClassBaseModel: func() Entity { return &BaseModel{} },
	ClassUser:      func() Entity { return &User{} },
	ClassState:     func() Entity { return &State{} },
	ClassCity:      func() Entity { return &City{} },
	ClassAmenity:   func() Entity { return &Amenity{} },
	ClassPlace:     func() Entity { return &Place{AmenityIDs: []string{}} },
	ClassReview:    func() Entity { return &Review{} },
}

// Classes returns every registered class name in a stable order.
func Classes() []string {
	out := make([]string, len(classOrder))
	copy(out, classOrder)
	return out
}

// IsClass reports whether name is a registered class. Matching is exact.
func IsClass(name string) bool {
	_, ok := constructors[name]
	return ok
}

// Zero returns an empty, unidentified entity of class.
func Zero(class string) (Entity, error) {
	ctor, ok := constructors[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	return ctor(), nil
}

// BaseModel is the generic entity with no declared attributes.
type BaseModel struct {
	Base
}

func (*BaseModel) Class() string { return ClassBaseModel }

func (*BaseModel) Fields() []Field { return nil }

// User is an account holder.
type User struct {
	Base
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (*User) Class() string { return ClassUser }

func (u *User) Fields() []Field {
	return []Field{
		stringField("email", &u.Email, true),
		stringField("password", &u.Password, true),
		stringField("first_name", &u.FirstName, false),
		stringField("last_name", &u.LastName, false),
	}
}

// State groups cities.
type State struct {
	Base
	Name string
}

func (*State) Class() string { return ClassState }

func (s *State) Fields() []Field {
	return []Field{
		stringField("name", &s.Name, true),
	}
}

// City belongs to a State.
type City struct {
	Base
	StateID string
	Name    string
}

func (*City) Class() string { return ClassCity }

func (c *City) Fields() []Field {
	return []Field{
		stringField("state_id", &c.StateID, true),
		stringField("name", &c.Name, true),
	}
}

// Amenity is a feature a Place can offer.
type Amenity struct {
	Base
	Name string
}

func (*Amenity) Class() string { return ClassAmenity }

func (a *Amenity) Fields() []Field {
	return []Field{
		stringField("name", &a.Name, true),
	}
}

// Place is a rentable lodging in a City owned by a User.
type Place struct {
	Base
	CityID          string
	UserID          string
	Name            string
	Description     string
	NumberRooms     int
	NumberBathrooms int
	MaxGuest        int
	PriceByNight    int
	Latitude        decimal.NullDecimal
	Longitude       decimal.NullDecimal
	// AmenityIDs is stored in the place_amenity join table by the
	// relational engine.
	AmenityIDs []string
}

func (*Place) Class() string { return ClassPlace }

func (p *Place) Fields() []Field {
	return []Field{
		stringField("city_id", &p.CityID, true),
		stringField("user_id", &p.UserID, true),
		stringField("name", &p.Name, true),
		stringField("description", &p.Description, false),
		intField("number_rooms", &p.NumberRooms),
		intField("number_bathrooms", &p.NumberBathrooms),
		intField("max_guest", &p.MaxGuest),
		intField("price_by_night", &p.PriceByNight),
		decimalField("latitude", &p.Latitude),
		decimalField("longitude", &p.Longitude),
		listField("amenity_ids", &p.AmenityIDs),
	}
}

// Review is a User's comment on a Place.
type Review struct {
	Base
	PlaceID string
	UserID  string
	Text    string
}

func (*Review) Class() string { return ClassReview }

func (r *Review) Fields() []Field {
	return []Field{
		stringField("place_id", &r.PlaceID, true),
		stringField("user_id", &r.UserID, true),
		stringField("text", &r.Text, true),
	}
}
