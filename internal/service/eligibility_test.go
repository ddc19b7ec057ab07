package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumeo-app/message-dispatcher/internal/model"
	"github.com/lumeo-app/message-dispatcher/internal/service"
)

func TestEligibility(t *testing.T) {
	conversationID := uuid.MustParse("9f2c7d8e-0b3a-4f6d-8c1e-222222222222")

	type setup func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo)

	cases := []struct {
		name string
		prep setup
		want bool
	}{
		{
			"participant with no settings row",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
			},
			true,
		},
		{
			"message notifications enabled explicitly",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
				settings.setBag(userID, model.SettingsBag{"message": json.RawMessage("true")})
			},
			true,
		},
		{
			"message notifications disabled",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
				settings.setBag(userID, model.SettingsBag{"message": json.RawMessage("false")})
			},
			false,
		},
		{
			"unrelated keys do not gate",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
				settings.setBag(userID, model.SettingsBag{"payment": json.RawMessage("false")})
			},
			true,
		},
		{
			"non-boolean message value fails open",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
				settings.setBag(userID, model.SettingsBag{"message": json.RawMessage(`"off"`)})
			},
			true,
		},
		{
			"settings lookup error fails open",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
				settings.errFor[userID] = errors.New("connection reset")
			},
			true,
		},
		{
			"conversation muted",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, true, "u@example.com", "u")
			},
			false,
		},
		{
			"not a participant",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {},
			false,
		},
		{
			"participant lookup error fails closed",
			func(userID uuid.UUID, settings *fakeSettingsRepo, participants *fakeParticipantRepo) {
				participants.addMember(conversationID, userID, false, "u@example.com", "u")
				participants.getErr = errors.New("connection reset")
			},
			false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			userID := uuid.New()
			settings := newFakeSettingsRepo()
			participants := newFakeParticipantRepo()
			tc.prep(userID, settings, participants)

			filter := &service.EligibilityFilter{
				Settings:     settings,
				Participants: participants,
				Log:          zerolog.Nop(),
			}
			if got := filter.Eligible(context.Background(), userID, conversationID); got != tc.want {
				t.Errorf("Eligible() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEligibilityChecksSettingsBeforeMembership(t *testing.T) {
	// A disabled preference wins even when the membership row is unreadable.
	userID := uuid.New()
	conversationID := uuid.New()

	settings := newFakeSettingsRepo()
	settings.setBag(userID, model.SettingsBag{"message": json.RawMessage("false")})
	participants := newFakeParticipantRepo()
	participants.getErr = errors.New("should not be reached")

	filter := &service.EligibilityFilter{Settings: settings, Participants: participants, Log: zerolog.Nop()}
	if filter.Eligible(context.Background(), userID, conversationID) {
		t.Error("expected ineligible")
	}
}
