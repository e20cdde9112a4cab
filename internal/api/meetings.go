package api

import (
	"context"
	"fmt"
	"net/url"
)

func meetingPath(id string) string {
	return "/req/meetings/" + url.PathEscape(id)
}

// GetMeetings lists the user's meetings.
func (c *Client) GetMeetings(ctx context.Context) ([]Meeting, error) {
	var resp []Meeting
	if err := c.get(ctx, "/req/meetings", nil, &resp); err != nil {
		return nil, fmt.Errorf("get meetings: %w", err)
	}
	return resp, nil
}

// GetOngoingMeetings lists meetings whose status is ongoing.
func (c *Client) GetOngoingMeetings(ctx context.Context) ([]Meeting, error) {
	all, err := c.GetMeetings(ctx)
	if err != nil {
		return nil, err
	}

	ongoing := all[:0]
	for _, m := range all {
		if m.Ongoing() {
			ongoing = append(ongoing, m)
		}
	}
	return ongoing, nil
}

// GetMeeting fetches a single meeting by id.
func (c *Client) GetMeeting(ctx context.Context, id string) (*Meeting, error) {
	var resp Meeting
	if err := c.get(ctx, meetingPath(id), nil, &resp); err != nil {
		return nil, fmt.Errorf("get meeting %s: %w", id, err)
	}
	return &resp, nil
}

// JoinMeeting registers the user as joined and returns the meeting URL.
func (c *Client) JoinMeeting(ctx context.Context, id string) (*JoinResponse, error) {
	var resp JoinResponse
	if err := c.post(ctx, meetingPath(id)+"/join", nil, &resp); err != nil {
		return nil, fmt.Errorf("join meeting %s: %w", id, err)
	}
	return &resp, nil
}

// LeaveMeeting registers the user as having left.
func (c *Client) LeaveMeeting(ctx context.Context, id string) error {
	if err := c.post(ctx, meetingPath(id)+"/leave", nil, nil); err != nil {
		return fmt.Errorf("leave meeting %s: %w", id, err)
	}
	return nil
}

// GetMeetingParticipants fetches a meeting's roster.
func (c *Client) GetMeetingParticipants(ctx context.Context, id string) ([]Participant, error) {
	var resp []Participant
	if err := c.get(ctx, meetingPath(id)+"/participants", nil, &resp); err != nil {
		return nil, fmt.Errorf("get participants %s: %w", id, err)
	}
	return resp, nil
}
