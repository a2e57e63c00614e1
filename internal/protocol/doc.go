// Package protocol implements the sbgECom binary frame format.
//
// Every message exchanged with the device, in both directions, uses the same
// frame layout:
//
//   - Sync bytes: 0xFF 0x5A
//   - Message class: 1 byte
//   - Message id: 1 byte
//   - Payload length: 2 bytes (little-endian, at most 4086)
//   - Payload: variable length
//   - CRC: 2 bytes (little-endian, CRC-16 over class, id, length and payload)
//   - End marker: 0x33
//
// # Decoding
//
// A Decoder accepts arbitrary chunks of a byte stream and yields complete,
// validated frames. Bytes before a sync pair are discarded. A candidate frame
// with a bad length, CRC or end marker is dropped one byte at a time so that a
// genuine frame starting inside it is still found.
//
// # Encoding
//
// Encode and AppendFrame build a single frame from a CommandID and a payload.
// Payloads larger than MaxPayloadSize are rejected with ErrPayloadTooLarge.
package protocol
