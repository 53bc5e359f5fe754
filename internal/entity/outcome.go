package entity

import (
	"errors"
	"fmt"
)

// Status is the round state of a board.
type Status uint8

const (
	StatusInProgress Status = iota
	StatusWon
	StatusDraw
)

const (
	statusInProgress = "in_progress"
	statusWon        = "won"
	statusDraw       = "draw"
)

var ErrUnknownStatus = errors.New("unknown round status")

func (that Status) String() string {
	switch that {
	case StatusWon:
		return statusWon
	case StatusDraw:
		return statusDraw
	default:
		return statusInProgress
	}
}

func (that Status) MarshalText() ([]byte, error) {
	return []byte(that.String()), nil
}

func (that *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case statusInProgress:
		*that = StatusInProgress
	case statusWon:
		*that = StatusWon
	case statusDraw:
		*that = StatusDraw
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, text)
	}

	return nil
}

// Outcome describes how a round stands. Winner and Line are only set when Status is StatusWon.
type Outcome struct {
	Status Status `json:"status"`
	Winner Player `json:"winner"`
	Line   Line   `json:"line,omitempty"`
}

func (that Outcome) IsFinished() bool {
	return that.Status == StatusWon || that.Status == StatusDraw
}

func (that Outcome) IsInProgress() bool {
	return that.Status == StatusInProgress
}

// Scores holds win counters. They survive round resets.
type Scores struct {
	Player1 int `json:"p1"`
	Player2 int `json:"p2"`
}

func (that Scores) Of(player Player) int {
	switch player {
	case Player1:
		return that.Player1
	case Player2:
		return that.Player2
	default:
		return 0
	}
}

// Add - increments the counter of the player and returns the new value.
func (that *Scores) Add(player Player) int {
	switch player {
	case Player1:
		that.Player1++
		return that.Player1
	case Player2:
		that.Player2++
		return that.Player2
	default:
		return 0
	}
}
