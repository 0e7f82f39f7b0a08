package models

import (
	"fmt"
	"strings"
)

// DocumentCategory is the closed set of onboarding document types.
type DocumentCategory string

const (
	CategoryPAN         DocumentCategory = "pan"
	CategoryAadhaar     DocumentCategory = "aadhaar"
	CategoryResume      DocumentCategory = "resume"
	CategoryOfferLetter DocumentCategory = "offer_letter"
	CategoryPFForm      DocumentCategory = "pf_form"
	CategoryPhoto       DocumentCategory = "photo"
	CategoryOther       DocumentCategory = "other"
)

// RequiredCategories lists the profile slots in canonical order.
var RequiredCategories = []DocumentCategory{
	CategoryAadhaar,
	CategoryPAN,
	CategoryResume,
	CategoryOfferLetter,
	CategoryPFForm,
	CategoryPhoto,
}

// CategorySchema is the static prompt and masking data attached to a category.
type CategorySchema struct {
	// Heading opens the validation prompt.
	Heading string
	// TextLabel introduces the extracted text block.
	TextLabel string
	// TextLimit bounds how many runes of extracted text reach the prompt.
	TextLimit int
	// EmptyText replaces the text block when nothing was extracted.
	EmptyText string
	// ReturnLabel introduces the JSON shape.
	ReturnLabel string
	// Fields is the JSON shape the model must return.
	Fields string
	// Note is appended after the shape.
	Note string
	// PIIField names the identifier that must be masked before storage.
	PIIField string
	// DisplayFields is the allow-list of keys a viewer may see.
	DisplayFields []string
}

const exactFields = "Return JSON with these exact fields:"

var schemas = map[DocumentCategory]CategorySchema{
	CategoryPAN: {
		Heading:     "Analyze this PAN card document and extract all fields:",
		TextLabel:   "Extracted Text:",
		TextLimit:   2000,
		ReturnLabel: exactFields,
		Fields: `{
    "is_valid_pan": true/false,
    "pan_number": "10-character PAN like ABCDE1234F",
    "name": "Full name as on card",
    "father_name": "Father's name if visible",
    "dob": "Date of birth in DD/MM/YYYY format",
    "missing_fields": ["list any critical missing data"],
    "issues": ["any validation issues found"],
    "confidence": 0.0-1.0,
    "extracted_data": {"any additional fields found"}
}`,
		PIIField:      "pan_number",
		DisplayFields: []string{"name", "pan_number_masked", "dob", "father_name"},
	},
	CategoryAadhaar: {
		Heading:     "Analyze this Aadhaar card document and extract all fields:",
		TextLabel:   "Extracted Text:",
		TextLimit:   2000,
		ReturnLabel: exactFields,
		Fields: `{
    "is_valid_aadhaar": true/false,
    "aadhaar_number": "12-digit Aadhaar number",
    "name": "Full name as on card",
    "dob": "Date of birth in DD/MM/YYYY format",
    "gender": "Male/Female/Other",
    "address": "Full address from card",
    "missing_fields": ["list any critical missing data"],
    "issues": ["any validation issues found"],
    "confidence": 0.0-1.0,
    "extracted_data": {"any additional fields found"}
}`,
		Note:          "IMPORTANT: Extract the full 12-digit Aadhaar number (will be masked later for security).",
		PIIField:      "aadhaar_number",
		DisplayFields: []string{"name", "aadhaar_number_masked", "dob", "gender", "address"},
	},
	CategoryResume: {
		Heading:     "Analyze this resume and extract professional details:",
		TextLabel:   "Extracted Text:",
		TextLimit:   3000,
		ReturnLabel: exactFields,
		Fields: `{
    "is_valid_resume": true/false,
    "name": "Candidate's full name",
    "email": "Email address",
    "phone": "Phone number",
    "skills": ["skill1", "skill2", "skill3"],
    "experience_years": number (total years of experience),
    "education": "Highest qualification",
    "current_company": "Current/last company name",
    "missing_fields": ["list any critical missing data"],
    "issues": ["any validation issues found"],
    "confidence": 0.0-1.0,
    "extracted_data": {"certifications": [], "languages": []}
}`,
		DisplayFields: []string{"name", "email", "phone", "education", "experience_years", "skills", "current_company"},
	},
	CategoryOfferLetter: {
		Heading:     "Analyze this offer letter and extract employment details:",
		TextLabel:   "Extracted Text:",
		TextLimit:   3000,
		ReturnLabel: exactFields,
		Fields: `{
    "is_valid_offer": true/false,
    "candidate_name": "Candidate's name",
    "position": "Job title/position",
    "salary": "Annual CTC or monthly salary",
    "joining_date": "Date of joining in DD/MM/YYYY",
    "department": "Department name",
    "reporting_to": "Manager/reporting authority",
    "company_name": "Hiring company name",
    "missing_fields": ["list any critical missing data"],
    "issues": ["any validation issues found"],
    "confidence": 0.0-1.0,
    "extracted_data": {"location": "", "employment_type": ""}
}`,
		DisplayFields: []string{"candidate_name", "position", "salary", "joining_date", "department", "reporting_to"},
	},
	CategoryPFForm: {
		Heading:     "Analyze this PF (Provident Fund) form and extract details:",
		TextLabel:   "Extracted Text:",
		TextLimit:   2000,
		ReturnLabel: exactFields,
		Fields: `{
    "is_valid_pf": true/false,
    "employee_name": "Employee's full name",
    "uan_number": "Universal Account Number (UAN)",
    "pf_number": "PF account number",
    "previous_employer": "Previous company name if any",
    "date_of_joining": "DOJ with previous employer",
    "missing_fields": ["list any critical missing data"],
    "issues": ["any validation issues found"],
    "confidence": 0.0-1.0,
    "extracted_data": {"nominee_name": "", "relationship": ""}
}`,
		DisplayFields: []string{"employee_name", "uan_number", "pf_number", "previous_employer", "date_of_joining"},
	},
	CategoryPhoto: {
		Heading:     "Validate this employee photo:",
		TextLabel:   "Metadata/Info:",
		TextLimit:   500,
		EmptyText:   "Image file",
		ReturnLabel: exactFields,
		Fields: `{
    "is_valid_photo": true/false,
    "file_type": "jpg/png/etc",
    "quality": "good/acceptable/poor",
    "issues": ["any issues like blurry, inappropriate, etc"],
    "confidence": 0.0-1.0,
    "extracted_data": {"dimensions": "", "size_kb": 0}
}`,
		DisplayFields: []string{"file_type", "uploaded_at"},
	},
	CategoryOther: {
		Heading:     "Analyze this document:",
		TextLabel:   "Extracted Text:",
		TextLimit:   2000,
		ReturnLabel: "Return JSON:",
		Fields: `{
    "is_valid_document": true/false,
    "document_type_detected": "type if identifiable",
    "extracted_data": {},
    "missing_fields": [],
    "issues": [],
    "confidence": 0.0-1.0
}`,
	},
}

// ParseDocumentCategory converts raw input into a category, case-insensitively.
func ParseDocumentCategory(raw string) (DocumentCategory, error) {
	category := DocumentCategory(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schemas[category]; !ok {
		return "", fmt.Errorf("unknown document category %q", raw)
	}
	return category, nil
}

// Valid reports whether c is a known category.
func (c DocumentCategory) Valid() bool {
	_, ok := schemas[c]
	return ok
}

// Schema returns the category's static schema. Unknown categories use the generic one.
func (c DocumentCategory) Schema() CategorySchema {
	if schema, ok := schemas[c]; ok {
		return schema
	}
	return schemas[CategoryOther]
}

// DisplayFields returns the allow-list for c; unknown categories get none.
func (c DocumentCategory) DisplayFields() []string {
	schema, ok := schemas[c]
	if !ok || len(schema.DisplayFields) == 0 {
		return []string{}
	}
	out := make([]string, len(schema.DisplayFields))
	copy(out, schema.DisplayFields)
	return out
}

func (c DocumentCategory) String() string {
	return string(c)
}
