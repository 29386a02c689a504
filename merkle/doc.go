package merkle

/*

# Batch merkle trees

Package merkle commits an ordered batch of leaf digests to a single 32 byte
root and produces and checks inclusion proofs against that root.

The tree is kept as a flat list of levels. levels[0] holds the leaves in batch
order, each following level holds the parents of the one below, and the last
level holds only the root. Navigation is index arithmetic: the parent of node i
is i/2 on the next level, its sibling is i^1.

## Unpaired nodes are promoted

When a level has an odd number of nodes, the last node has no sibling. It is
carried to the next level unchanged. It is never paired with a copy of itself.
For the leaves [A, B, C]

	2        H(H(A||B) || C)
	        /               \
	1    H(A||B)             C
	     /     \             |
	0   A       B            C

the root is H(H(A||B) || C). The same rule is applied when building the tree
and when replaying a proof, and it is part of the compatibility contract for
every stored or anchored root: changing it changes every root.

A tree built this way has the same shape as an RFC 6962 tree over the same
leaves. The node hash is plain H(left || right) with no domain separation
prefix, and the leaf value is the digest of the raw leaf bytes. LogHasher exposes
this hashing to github.com/transparency-dev/merkle so compact audit paths can be
checked with that library as well.

## Proofs

A Proof has exactly one step per level below the root. A step either names the
sibling digest and which side it sits on, or records that the node was promoted
at that level. The promoted step carries no sibling. Keeping the promoted steps
means the proof length is always the tree height, ceil(log2(n)), and the
expected shape of every proof can be derived from just the leaf index and the
leaf count. VerifyInclusion rejects any proof whose shape disagrees.

## Single leaf batches

A batch of one leaf has no interior nodes. Its root is the leaf digest itself
and its proof has no steps.
*/
