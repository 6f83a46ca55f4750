package model

import "time"

type SurveyResults struct {
	SurveyID       string           `json:"surveyId"`
	SurveyTitle    string           `json:"surveyTitle"`
	TotalResponses int              `json:"totalResponses"`
	Questions      []QuestionResult `json:"questions"`
}

// QuestionResult holds Options for choice questions and TextResponses for
// text questions; the other one is null.
type QuestionResult struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	Type          QuestionType   `json:"type"`
	DisplayOrder  int            `json:"displayOrder"`
	Options       []OptionResult `json:"options"`
	TextResponses []TextResponse `json:"textResponses"`
}

type OptionResult struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	DisplayOrder int    `json:"displayOrder"`
	Count        int    `json:"count"`
	Percentage   int    `json:"percentage"`
}

type TextResponse struct {
	Text        string    `json:"text"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Dashboard struct {
	Stats          DashboardStats  `json:"stats"`
	ResponsesByDay []DayCount      `json:"responsesByDay"`
	RecentSurveys  []SurveySummary `json:"recentSurveys"`
	RecentActivity []Activity      `json:"recentActivity"`
}

type DashboardStats struct {
	ActiveSurveys  int    `json:"activeSurveys"`
	TotalSurveys   int    `json:"totalSurveys"`
	ResponsesToday int    `json:"responsesToday"`
	TotalResponses int    `json:"totalResponses"`
	TotalUsers     int    `json:"totalUsers"`
	ResponseRate   string `json:"responseRate"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type SurveySummary struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
	ResponseCount int       `json:"responseCount"`
}

type Activity struct {
	Type            string    `json:"type"`
	SurveyTitle     string    `json:"surveyTitle"`
	ParticipantName string    `json:"participantName"`
	Timestamp       time.Time `json:"timestamp"`
}
