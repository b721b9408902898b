package model

// Member is a registered user as stored in the `members` collection.
// Registration persists the submitted body as-is apart from the password,
// so only the fields read back by login are modelled here and the
// scalar profile fields keep whatever JSON type the client sent.
//
// Fields:
//
//	ID       – members._id, a generated ObjectID unless the client set one.
//	Username – login name; not unique at the storage level.
//	Password – bcrypt digest, never plaintext.
//	Name, Age, Weight – profile values returned on login.
type Member struct {
	ID       any    `bson:"_id"`
	Username any    `bson:"username"`
	Password string `bson:"password"`
	Name     any    `bson:"name"`
	Age      any    `bson:"age"`
	Weight   any    `bson:"weight"`
}

// MemberProfile is the login response: the member without its digest.
type MemberProfile struct {
	ID     any `json:"_id"`
	Name   any `json:"name"`
	Age    any `json:"age"`
	Weight any `json:"weight"`
}

// Profile strips the credential fields from m.
func (m Member) Profile() MemberProfile {
	return MemberProfile{ID: m.ID, Name: m.Name, Age: m.Age, Weight: m.Weight}
}
