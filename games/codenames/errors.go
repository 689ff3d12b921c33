/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRoleConflict      = errors.New("role already taken")
	ErrAlreadyRevealed   = errors.New("card already revealed")
	ErrCardNotFound      = errors.New("card not found")
	ErrInvalidClue       = errors.New("invalid clue")

	// Store errors.
	ErrRoomExists      = errors.New("room code already in use")
	ErrVersionConflict = errors.New("room was modified concurrently")
	ErrStorage         = errors.New("unexpected storage error")
)
