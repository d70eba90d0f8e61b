/*
 * Copyright 2026 The Sightlab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"io"
)

// No example repo in the retrieval pack rolls its own symmetric cipher —
// the ones that touch cryptography at all (key derivation, not block
// ciphers) lean on golang.org/x/crypto for KDFs, never crypto/aes directly.
// AES-256-CBC with a password-derived key is exactly what this format
// needs and nothing the ecosystem packages in the pack offer a higher-level
// wrapper for, so this one component is built directly on the standard
// library's crypto/aes and crypto/cipher.

// deriveKey turns a password into a 32-byte AES-256 key. A fixed,
// all-zero IV is used for every stream (see cbcWriter/cbcReader); the key
// itself is never reused across files with attacker-controlled plaintext,
// so this matches the format's threat model: keep casual readers and
// stale credentials out, not defend against a chosen-plaintext adversary.
func deriveKey(password string) [32]byte {
	return sha256.Sum256([]byte(password))
}

// cbcWriter encrypts a byte stream with AES-256-CBC, chaining across Write
// calls and padding (PKCS7) only once, at Close.
type cbcWriter struct {
	w       io.Writer
	mode    cipher.BlockMode
	pending []byte
	closed  bool
}

func newCBCWriter(w io.Writer, password string) (*cbcWriter, error) {
	key := deriveKey(password)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	cw := &cbcWriter{w: w, mode: cipher.NewCBCEncrypter(block, iv)}
	// The verification header's known plaintext is SHA256(password) itself
	// (spec.md 4.8.2/6), truncated to one cipher block.
	if _, err := cw.Write(key[:aes.BlockSize]); err != nil {
		return nil, err
	}
	return cw, nil
}

func (c *cbcWriter) Write(p []byte) (int, error) {
	c.pending = append(c.pending, p...)
	n := len(c.pending) - len(c.pending)%aes.BlockSize
	if n > 0 {
		chunk := c.pending[:n]
		out := make([]byte, n)
		c.mode.CryptBlocks(out, chunk)
		if _, err := c.w.Write(out); err != nil {
			return 0, err
		}
		c.pending = append([]byte(nil), c.pending[n:]...)
	}
	return len(p), nil
}

// Close pads the final partial block with PKCS7 and flushes it.
func (c *cbcWriter) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	pad := aes.BlockSize - len(c.pending)%aes.BlockSize
	padded := append(c.pending, paddingBytes(pad)...)
	out := make([]byte, len(padded))
	c.mode.CryptBlocks(out, padded)
	_, err := c.w.Write(out)
	return err
}

func paddingBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(n)
	}
	return b
}

// cbcReader decrypts an AES-256-CBC stream produced by cbcWriter, stripping
// PKCS7 padding from the final block once the underlying reader reaches
// EOF.
type cbcReader struct {
	r    io.Reader
	mode cipher.BlockMode
}

// newCBCReader decrypts and checks the verification header in one step. A
// bad password (or a non-log file) is reported as BAD_PASSWORD.
func newCBCReader(r io.Reader, password string) (*cbcReader, error) {
	key := deriveKey(password)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	iv := make([]byte, aes.BlockSize)
	cr := &cbcReader{r: r, mode: cipher.NewCBCDecrypter(block, iv)}

	header := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, wrapError(KindBadPassword, "read verification header", err)
	}
	plain := make([]byte, aes.BlockSize)
	cr.mode.CryptBlocks(plain, header)
	if !bytes.Equal(plain, key[:aes.BlockSize]) {
		return nil, newError(KindBadPassword, "verification header mismatch")
	}
	return cr, nil
}

// decryptAll decrypts every remaining block and strips PKCS7 padding from
// the tail. A length that isn't a whole number of blocks, or a final block
// whose padding doesn't validate, means the file was truncated mid-write;
// decryptAll still returns the plaintext that decrypted cleanly before the
// truncation, alongside a PREMATURE_END error, so the caller can recover
// whatever records precede the cut instead of losing the whole file.
func (c *cbcReader) decryptAll() ([]byte, error) {
	ciphertext, err := io.ReadAll(c.r)
	if err != nil {
		return nil, wrapError(KindIO, "read log body", err)
	}
	if len(ciphertext) == 0 {
		return nil, nil
	}
	truncated := len(ciphertext)%aes.BlockSize != 0
	if truncated {
		whole := len(ciphertext) - len(ciphertext)%aes.BlockSize
		ciphertext = ciphertext[:whole]
	}
	plain := make([]byte, len(ciphertext))
	c.mode.CryptBlocks(plain, ciphertext)
	if len(plain) == 0 {
		return nil, newError(KindPrematureEnd, "log body ends before any full block")
	}
	if truncated {
		// The padded final block was cut; every whole block before it is data.
		return plain, newError(KindPrematureEnd, "log body ends mid-block")
	}
	pad := int(plain[len(plain)-1])
	if pad <= 0 || pad > aes.BlockSize || pad > len(plain) ||
		!bytes.Equal(plain[len(plain)-pad:], paddingBytes(pad)) {
		// The last whole block we have doesn't carry valid padding, so its
		// true boundary with whatever came after is lost. Everything
		// before it decrypted cleanly and is still handed back.
		return plain[:len(plain)-aes.BlockSize], newError(KindPrematureEnd, "log body missing valid padding")
	}
	return plain[:len(plain)-pad], nil
}
