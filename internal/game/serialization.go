package game

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeSnapshotJSON renders a snapshot to its JSON wire form.
func EncodeSnapshotJSON(snap *GameSnapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON parses a JSON snapshot.
func DecodeSnapshotJSON(data []byte) (*GameSnapshot, error) {
	var snap GameSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// EncodeSnapshotBinary renders a snapshot in the compact binary form used
// for at-rest storage and cross-process handoff.
func EncodeSnapshotBinary(snap *GameSnapshot) ([]byte, error) {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotBinary parses a binary snapshot.
func DecodeSnapshotBinary(data []byte) (*GameSnapshot, error) {
	var snap GameSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// SnapshotChecksum computes a hex SHA-256 over the canonical JSON form.
// Object lists are emitted in sorted id order by BuildSnapshot, so two
// structurally equal states produce the same checksum.
func SnapshotChecksum(snap *GameSnapshot) (string, error) {
	trimmed := *snap
	trimmed.DebugLog = nil
	data, err := json.Marshal(&trimmed)
	if err != nil {
		return "", fmt.Errorf("checksum snapshot: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifySnapshotChecksum reports whether the snapshot matches an expected
// checksum.
func VerifySnapshotChecksum(snap *GameSnapshot, expected string) (bool, error) {
	actual, err := SnapshotChecksum(snap)
	if err != nil {
		return false, err
	}
	return actual == expected, nil
}
