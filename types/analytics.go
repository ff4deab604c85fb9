package types

// MonthlyCount is the number of records created in one calendar month.
type MonthlyCount struct {
	Month int   `json:"month" bson:"month"`
	Count int64 `json:"count" bson:"count"`
}

// YearlyRegistrations rolls monthly user registrations up per year.
type YearlyRegistrations struct {
	Year   int            `json:"year" bson:"_id"`
	Months []MonthlyCount `json:"months" bson:"months"`
	Total  int64          `json:"total" bson:"total"`
}

// MonthlyArticleStats splits one month's articles by moderation status.
type MonthlyArticleStats struct {
	Year     int   `json:"year" bson:"year"`
	Month    int   `json:"month" bson:"month"`
	Total    int64 `json:"total" bson:"total"`
	Accepted int64 `json:"accepted" bson:"accepted"`
	Rejected int64 `json:"rejected" bson:"rejected"`
	Draft    int64 `json:"draft" bson:"draft"`
}

// VisitCount is the singleton site visit counter.
type VisitCount struct {
	ID    string `json:"-" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
