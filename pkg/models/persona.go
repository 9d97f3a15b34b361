package models

// PersonaConfig is the full persona shape an operator can attach to a
// user's assistant. Prompt assembly uses only the populated subset; every
// field is optional.
type PersonaConfig struct {
	ID           string               `bson:"_id,omitempty" json:"id,omitempty"`
	UserID       string               `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Identity     *PersonaIdentity     `bson:"identity,omitempty" json:"identity,omitempty"`
	Professional *PersonaProfessional `bson:"professional,omitempty" json:"professional,omitempty"`
	Academics    *PersonaAcademics    `bson:"academics,omitempty" json:"academics,omitempty"`
	Family       *PersonaFamily       `bson:"family,omitempty" json:"family,omitempty"`
	Lifestyle    *PersonaLifestyle    `bson:"lifestyle,omitempty" json:"lifestyle,omitempty"`
	Strengths    *PersonaStrengths    `bson:"strengths_and_weaknesses,omitempty" json:"strengths_and_weaknesses,omitempty"`
	Expertise    []string             `bson:"expertise,omitempty" json:"expertise,omitempty"`
	Humor        string               `bson:"humor,omitempty" json:"humor,omitempty"`
	ExpertLevel  string               `bson:"expert_level,omitempty" json:"expert_level,omitempty"`
	Language     string               `bson:"response_language,omitempty" json:"response_language,omitempty"`
}

// PersonaIdentity holds who the persona is.
type PersonaIdentity struct {
	FullName            string   `bson:"full_name,omitempty" json:"full_name,omitempty"`
	Age                 int      `bson:"age,omitempty" json:"age,omitempty"`
	Location            string   `bson:"location,omitempty" json:"location,omitempty"`
	Languages           []string `bson:"languages,omitempty" json:"languages,omitempty"`
	PhysicalDescription string   `bson:"physical_description,omitempty" json:"physical_description,omitempty"`
}

// PersonaProfessional holds work background.
type PersonaProfessional struct {
	CurrentRole       string   `bson:"current_role,omitempty" json:"current_role,omitempty"`
	Company           string   `bson:"company,omitempty" json:"company,omitempty"`
	YearsOfExperience int      `bson:"years_of_experience,omitempty" json:"years_of_experience,omitempty"`
	AreasOfExpertise  []string `bson:"areas_of_expertise,omitempty" json:"areas_of_expertise,omitempty"`
}

// PersonaAcademics holds education background.
type PersonaAcademics struct {
	School     []string `bson:"school,omitempty" json:"school,omitempty"`
	University []string `bson:"university,omitempty" json:"university,omitempty"`
}

// PersonaFamily holds family details.
type PersonaFamily struct {
	MaritalStatus string `bson:"marital_status,omitempty" json:"marital_status,omitempty"`
	SpouseName    string `bson:"spouse_name,omitempty" json:"spouse_name,omitempty"`
	ChildrenCount int    `bson:"children_count,omitempty" json:"children_count,omitempty"`
	SiblingsCount int    `bson:"siblings_count,omitempty" json:"siblings_count,omitempty"`
	FatherName    string `bson:"father_name,omitempty" json:"father_name,omitempty"`
	MotherName    string `bson:"mother_name,omitempty" json:"mother_name,omitempty"`
}

// PersonaLifestyle holds hobbies and interests.
type PersonaLifestyle struct {
	Hobbies              []string `bson:"hobbies,omitempty" json:"hobbies,omitempty"`
	PersonalInterests    []string `bson:"personal_interests,omitempty" json:"personal_interests,omitempty"`
	LifestyleDescription string   `bson:"lifestyle_description,omitempty" json:"lifestyle_description,omitempty"`
}

// PersonaStrengths holds self-declared strengths and weaknesses.
type PersonaStrengths struct {
	Strengths  []string `bson:"strengths,omitempty" json:"strengths,omitempty"`
	Weaknesses []string `bson:"weaknesses,omitempty" json:"weaknesses,omitempty"`
}

// UserProfile is the projected profile of a connected person, used in
// summarize prompts and cached with a short TTL.
type UserProfile struct {
	ID        string   `bson:"_id,omitempty" json:"id,omitempty"`
	Name      string   `bson:"name,omitempty" json:"name,omitempty"`
	Age       int      `bson:"age,omitempty" json:"age,omitempty"`
	Gender    string   `bson:"gender,omitempty" json:"gender,omitempty"`
	Country   string   `bson:"country,omitempty" json:"country,omitempty"`
	Address   string   `bson:"address,omitempty" json:"address,omitempty"`
	ImageURL  string   `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Tags      []string `bson:"tags,omitempty" json:"tags,omitempty"`
	Interests []string `bson:"interests,omitempty" json:"interests,omitempty"`
}
