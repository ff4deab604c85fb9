package store

import (
	"html"
	"regexp"

	"github.com/newsroom-api/server/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	articleSearchFields = []string{"title", "category", "status"}
	// Sanitized HTML fields keep text nodes entity-escaped.
	articleMarkupFields = []string{"subheading", "content"}
	userSearchFields    = []string{"name", "email", "mobile", "status", "role"}
)

// substringMatch builds an $or of case-insensitive substring matches. The
// query is escaped so user input never becomes a pattern.
func substringMatch(query string, fields []string) bson.A {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	clauses := make(bson.A, 0, len(fields))
	for _, field := range fields {
		clauses = append(clauses, bson.D{{Key: field, Value: pattern}})
	}
	return clauses
}

func articleFilter(f types.ArticleFilter) bson.D {
	var and bson.A

	if len(f.Statuses) > 0 {
		statusClause := bson.D{{Key: "status", Value: bson.D{{Key: "$in", Value: f.Statuses}}}}
		if !f.OwnedBy.IsZero() {
			and = append(and, bson.D{{Key: "$or", Value: bson.A{
				statusClause,
				bson.D{{Key: "reporterId", Value: f.OwnedBy}},
			}}})
		} else {
			and = append(and, statusClause)
		}
	}
	if !f.ReporterID.IsZero() {
		and = append(and, bson.D{{Key: "reporterId", Value: f.ReporterID}})
	}
	if f.Category != "" {
		and = append(and, bson.D{{Key: "category", Value: f.Category}})
	}
	if f.Text != "" {
		clauses := append(substringMatch(f.Text, articleSearchFields),
			substringMatch(html.EscapeString(f.Text), articleMarkupFields)...)
		and = append(and, bson.D{{Key: "$or", Value: clauses}})
	}

	switch len(and) {
	case 0:
		return bson.D{}
	case 1:
		return and[0].(bson.D)
	default:
		return bson.D{{Key: "$and", Value: and}}
	}
}

func userFilter(f types.UserFilter) bson.D {
	filter := bson.D{}
	if f.Role != "" {
		filter = append(filter, bson.E{Key: "role", Value: f.Role})
	}
	if f.Text != "" {
		filter = append(filter, bson.E{Key: "$or", Value: substringMatch(f.Text, userSearchFields)})
	}
	return filter
}

// withReporterName joins the author's display name onto each article.
func withReporterName() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "reporterId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "reporter"},
		}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "reporterName", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$reporter.name", 0}}}},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "reporter", Value: 0}}}},
	}
}

func pagedArticlesPipeline(filter bson.D, page types.PageRequest) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$skip", Value: page.Skip()}},
		{{Key: "$limit", Value: int64(page.Limit)}},
	}
	return append(pipeline, withReporterName()...)
}

func latestPerCategoryPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: types.ArticleStatusAccepted}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "latest", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$latest"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}
}

func registrationsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "role", Value: types.RoleUser}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "year", Value: bson.D{{Key: "$year", Value: "$createdAt"}}},
				{Key: "month", Value: bson.D{{Key: "$month", Value: "$createdAt"}}},
			}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$_id.year"},
			{Key: "months", Value: bson.D{{Key: "$push", Value: bson.D{
				{Key: "month", Value: "$_id.month"},
				{Key: "count", Value: "$count"},
			}}}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$count"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

func countWhereStatus(status string) bson.D {
	return bson.D{{Key: "$sum", Value: bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$status", status}}}, 1, 0,
	}}}}}
}

func articleStatsPipeline(reporterID primitive.ObjectID) mongo.Pipeline {
	match := bson.D{}
	if !reporterID.IsZero() {
		match = bson.D{{Key: "reporterId", Value: reporterID}}
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{
				{Key: "year", Value: bson.D{{Key: "$year", Value: "$createdAt"}}},
				{Key: "month", Value: bson.D{{Key: "$month", Value: "$createdAt"}}},
			}},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "accepted", Value: countWhereStatus(types.ArticleStatusAccepted)},
			{Key: "rejected", Value: countWhereStatus(types.ArticleStatusRejected)},
			{Key: "draft", Value: countWhereStatus(types.ArticleStatusDraft)},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "year", Value: "$_id.year"},
			{Key: "month", Value: "$_id.month"},
			{Key: "total", Value: 1},
			{Key: "accepted", Value: 1},
			{Key: "rejected", Value: 1},
			{Key: "draft", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}}}},
	}
}
