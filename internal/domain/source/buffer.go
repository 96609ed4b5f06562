package source

import "sync"

// FileName is the single file the playground edits
const FileName = "App.js"

// Example is the snippet every new buffer starts with
const Example = `import { StatusBar } from 'expo-status-bar';
import React from 'react';
import { StyleSheet, Text, View } from 'react-native';

export default function App() {
  return (
    <View style={styles.container}>
      <Text style={styles.text}>Hello, Human! 👋</Text>
      <View style={styles.box}>
        <Text>Run me!</Text>
      </View>
      <StatusBar style="auto" />
    </View>
  );
}

const styles = StyleSheet.create({
  container: {
    flex: 1,
    backgroundColor: '#fff',
    alignItems: 'center',
    justifyContent: 'center',
    gap: 20,
  },
  text: {
    fontSize: 24,
    fontWeight: 'bold',
  },
  box: {
    padding: 20,
    backgroundColor: '#ffde03',
    borderWidth: 2,
    borderColor: '#000',
    borderRadius: 10,
    shadowColor: '#000',
    shadowOffset: { width: 4, height: 4 },
    shadowOpacity: 1,
    shadowRadius: 0,
  }
});`

// Snapshot is an immutable copy of the buffer taken at one revision
type Snapshot struct {
	Code     string `json:"code"`
	Revision uint64 `json:"revision"`
}

// Buffer holds the editable source text. Edits are stored verbatim.
type Buffer struct {
	mu       sync.RWMutex
	code     string
	revision uint64
}

// NewBuffer creates a buffer seeded with the example snippet
func NewBuffer() *Buffer {
	return NewBufferWith(Example)
}

// NewBufferWith creates a buffer seeded with code
func NewBufferWith(code string) *Buffer {
	return &Buffer{code: code}
}

// Set replaces the buffer contents and returns the new revision
func (b *Buffer) Set(code string) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.code = code
	b.revision++
	return b.revision
}

// Snapshot returns the current contents
func (b *Buffer) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Snapshot{Code: b.code, Revision: b.revision}
}

// Code returns the current text
func (b *Buffer) Code() string {
	return b.Snapshot().Code
}
