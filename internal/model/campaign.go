package model

import "time"

// CampaignStatus enumerates the sales states of a campaign.  The
// booking flow only ever moves a campaign to booked or active; the
// remaining states are managed by the surrounding application.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignPending   CampaignStatus = "pending"
	CampaignBooked    CampaignStatus = "booked"
	CampaignActive    CampaignStatus = "active"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign is the advertiser flight a reservation is sold under.
// Probability and ApprovalStatus are gates used elsewhere (pre-bill
// eligibility); the booking converter only reads the flight window and
// writes Status.
type Campaign struct {
	ID             uint64         `json:"id"`              // campaigns.id
	OrgID          uint64         `json:"org_id"`          // campaigns.org_id
	AdvertiserID   uint64         `json:"advertiser_id"`   // campaigns.advertiser_id
	Name           string         `json:"name"`            // campaigns.name
	Status         CampaignStatus `json:"status"`          // campaigns.status
	Probability    int            `json:"probability"`     // campaigns.probability (percent)
	ApprovalStatus string         `json:"approval_status"` // campaigns.approval_status
	StartDate      time.Time      `json:"start_date"`      // campaigns.start_date
	EndDate        time.Time      `json:"end_date"`        // campaigns.end_date
	CreatedAt      time.Time      `json:"created_at"`      // campaigns.created_at
	UpdatedAt      time.Time      `json:"updated_at"`      // campaigns.updated_at
}

// StatusForFlight returns the status a freshly booked campaign should
// carry: active when now falls inside the flight window, booked when
// the window has not started (or already ended).
func (c *Campaign) StatusForFlight(now time.Time) CampaignStatus {
	if !now.Before(c.StartDate) && !now.After(c.EndDate) {
		return CampaignActive
	}
	return CampaignBooked
}
