package httpapi

import (
	"time"

	"jobmate/matching-service/internal/model"
	"jobmate/matching-service/internal/textutil"
)

// JobResponse is the JSON shape returned to the Gateway / mobile+web clients.
// Text fields are entity-decoded and the description is stripped of markup.
type JobResponse struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"externalId"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
	JobType     *string   `json:"jobType"`
	Salary      *string   `json:"salary"`
	Category    *string   `json:"category"`
	Skills      []string  `json:"skills"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	IsRemote    bool      `json:"isRemote"`
	PostedAt    time.Time `json:"postedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toJobResponse(j model.Job) JobResponse {
	resp := JobResponse{
		ID:          j.ID,
		ExternalID:  j.ExternalID,
		Title:       textutil.DecodeEntities(j.Title),
		Company:     textutil.DecodeEntities(j.Company),
		Description: textutil.StripHTML(j.Description),
		JobType:     j.JobType,
		Salary:      j.Salary,
		Category:    j.Category,
		Skills:      j.Skills,
		IsRemote:    j.IsRemote,
		PostedAt:    j.PostedAt,
		CreatedAt:   j.CreatedAt,
	}
	if j.Location != nil {
		loc := textutil.DecodeEntities(*j.Location)
		resp.Location = &loc
	}
	if resp.Skills == nil {
		resp.Skills = []string{}
	}
	if j.Coordinates.Known {
		lat, lon := j.Coordinates.Lat, j.Coordinates.Lon
		resp.Latitude, resp.Longitude = &lat, &lon
	}
	return resp
}

func toJobResponses(jobs []model.Job) []JobResponse {
	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}
