package allocation

// SampleDocument is served in place of a missing allocation file when
// sample mode is on, so a real file can be bootstrapped from it.
const SampleDocument = `[
  {
    "tags": ["office", "project"],
    "allocation": 4
  },
  {
    "tags": ["office", "meetings"],
    "allocation": 1.5
  },
  {
    "tags": ["personal", "learning"],
    "allocation": 0.5
  }
]
`
