package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/http"
	"strings"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
)

// NameMax is the longest name a dirent can carry; the slot holds one more
// byte for the terminating NUL.
const NameMax = 255

func EncodeAttr(attr *models.Attr) ([]byte, error) {
	buf := new(bytes.Buffer)

	// ino (int64, 8 bytes)
	if err := binary.Write(buf, binary.LittleEndian, attr.Ino); err != nil {
		return nil, fmt.Errorf("failed to encode ino: %w", err)
	}

	// type (int16, 2 bytes)
	if err := binary.Write(buf, binary.LittleEndian, int16(attr.Type)); err != nil {
		return nil, fmt.Errorf("failed to encode type: %w", err)
	}

	// mode (uint32, 4 bytes)
	if err := binary.Write(buf, binary.LittleEndian, attr.Mode); err != nil {
		return nil, fmt.Errorf("failed to encode mode: %w", err)
	}

	// size (int64, 8 bytes)
	if err := binary.Write(buf, binary.LittleEndian, attr.Size); err != nil {
		return nil, fmt.Errorf("failed to encode size: %w", err)
	}

	// nlink (uint32, 4 bytes)
	if err := binary.Write(buf, binary.LittleEndian, attr.Nlink); err != nil {
		return nil, fmt.Errorf("failed to encode nlink: %w", err)
	}

	// atime, mtime (int64 unix nanoseconds, 8 bytes each)
	if err := binary.Write(buf, binary.LittleEndian, attr.Atime.UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to encode atime: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, attr.Mtime.UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to encode mtime: %w", err)
	}

	return buf.Bytes(), nil
}

func EncodeDirent(dirent *models.Dirent) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := writeDirent(buf, dirent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeDirents writes a uint32 count followed by that many dirents.
func EncodeDirents(dirents []models.Dirent) ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, uint32(len(dirents))); err != nil {
		return nil, fmt.Errorf("failed to encode count: %w", err)
	}
	for i := range dirents {
		if err := writeDirent(buf, &dirents[i]); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeDirent(buf *bytes.Buffer, dirent *models.Dirent) error {
	if len(dirent.Name) > NameMax {
		return fmt.Errorf("failed to encode name: %d bytes exceeds %d", len(dirent.Name), NameMax)
	}

	// name (char[256], null-terminated, padded with zeros)
	nameBytes := make([]byte, NameMax+1)
	copy(nameBytes, dirent.Name)
	if _, err := buf.Write(nameBytes); err != nil {
		return fmt.Errorf("failed to encode name: %w", err)
	}

	// ino (int64, 8 bytes)
	if err := binary.Write(buf, binary.LittleEndian, dirent.Ino); err != nil {
		return fmt.Errorf("failed to encode ino: %w", err)
	}

	// type (int16, 2 bytes)
	if err := binary.Write(buf, binary.LittleEndian, int16(dirent.Type)); err != nil {
		return fmt.Errorf("failed to encode type: %w", err)
	}

	return nil
}

// DecodePath turns a path received from a client into the engine's form.
// The client may send the raw buffer with its terminating NUL.
func DecodePath(raw string) string {
	if i := strings.IndexByte(raw, 0); i >= 0 {
		return raw[:i]
	}
	return raw
}

func WriteResponse(w http.ResponseWriter, code int64, data []byte) error {
	response := new(bytes.Buffer)

	// Код возврата (int64, 8 bytes)
	if err := binary.Write(response, binary.LittleEndian, code); err != nil {
		return fmt.Errorf("failed to write response code: %w", err)
	}

	// Данные (если есть)
	if data != nil {
		if _, err := response.Write(data); err != nil {
			return fmt.Errorf("failed to write response data: %w", err)
		}
	}

	body := response.Bytes()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(body)
	return err
}

func WriteUint32Response(w http.ResponseWriter, code int64, value uint32) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, value); err != nil {
		return err
	}
	return WriteResponse(w, code, buf.Bytes())
}

func WriteInt64Response(w http.ResponseWriter, code int64, value int64) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, value); err != nil {
		return err
	}
	return WriteResponse(w, code, buf.Bytes())
}

func WriteUint64Response(w http.ResponseWriter, code int64, value uint64) error {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, value); err != nil {
		return err
	}
	return WriteResponse(w, code, buf.Bytes())
}
