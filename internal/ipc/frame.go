package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the serialized payload of a single frame. Declared
// lengths above this are protocol errors and are rejected before any payload
// bytes are read.
const MaxFrameSize = 1 << 20

// ErrFrameTooLarge reports a declared frame length above MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// ErrEmptyFrame reports a declared frame length of zero.
var ErrEmptyFrame = errors.New("frame declares zero-length payload")

// WriteFrame writes a length-prefixed payload: 4-byte little-endian length
// followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) == 0 {
		return ErrEmptyFrame
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, len(payload), MaxFrameSize)
	}
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed payload. Oversized or zero declared
// lengths fail before any payload bytes are consumed.
func ReadFrame(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	length := binary.LittleEndian.Uint32(prefix[:])
	if length == 0 {
		return nil, ErrEmptyFrame
	}
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, length, MaxFrameSize)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return payload, nil
}

// EncodeRequest serializes a request for framing.
func EncodeRequest(req Request) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

// DecodeRequest deserializes a framed request payload. Trailing bytes after
// the payload are an error, not ignored.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	if err := decodeStrict(data, &req); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	if err := req.Validate(); err != nil {
		return Request{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}

// EncodeResponse serializes a response for framing.
func EncodeResponse(resp Response) ([]byte, error) {
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return data, nil
}

// DecodeResponse deserializes a framed response payload.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	if err := decodeStrict(data, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func decodeStrict(data []byte, v any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return err
	}
	if decoder.More() {
		return errors.New("trailing bytes after payload")
	}
	return nil
}
